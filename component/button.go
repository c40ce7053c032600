package component

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

// DebounceDefault is the debounce interval used when ButtonConfig does
// not set one. Mechanical switches typically settle well within 30 ms.
const DebounceDefault = 30 * time.Millisecond

const buttonPollDefault = 5 * time.Millisecond

// ButtonConfig configures a Button. The zero value gives a floating
// input with the default debounce interval.
type ButtonConfig struct {
	// Pull selects the internal pull resistor. With BiasPullUp the
	// button is considered pressed when the pin reads low, with
	// BiasPullDown when it reads high.
	Pull gpio.Bias

	// Debounce is the minimum interval a state change must persist
	// before it is reported. Zero selects DebounceDefault, negative
	// disables debouncing.
	Debounce time.Duration

	// PollInterval is how often the watcher samples the pin.
	PollInterval time.Duration

	// WhenPressed and WhenReleased are invoked from the watcher
	// goroutine on debounced state changes. Close joins the watcher,
	// so a callback must not call Close directly. A callback that
	// wants to shut the button down spawns a goroutine for it.
	WhenPressed  func()
	WhenReleased func()

	Consumer string
	Logger   *logrus.Entry
}

// Button reads a push button on one input line. A background watcher
// debounces the signal and drives the callbacks and the WaitFor
// methods.
type Button struct {
	debugLogger

	line gpio.Line
	cfg  ButtonConfig

	done     chan struct{}
	finished chan struct{}

	mutex   sync.Mutex
	pressed bool
	waiters map[chan bool]struct{}
	closed  bool
}

// NewButton reserves the line and starts the watcher.
func NewButton(chip gpio.Chip, offset int, cfg ButtonConfig) (*Button, error) {
	if cfg.Debounce == 0 {
		cfg.Debounce = DebounceDefault
	} else if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = buttonPollDefault
	}

	line, err := chip.RequestLine(offset, gpio.LineConfig{
		Direction: gpio.Input,
		Bias:      cfg.Pull,
		Consumer:  cfg.Consumer,
	})
	if err != nil {
		return nil, err
	}

	b := &Button{
		debugLogger: debugLogger{cfg.Logger},
		line:        line,
		cfg:         cfg,
		done:        make(chan struct{}),
		finished:    make(chan struct{}),
		waiters:     make(map[chan bool]struct{}),
	}

	pressed, err := b.IsPressed()
	if err != nil {
		line.Release()
		return nil, err
	}
	b.pressed = pressed

	go b.watch()

	return b, nil
}

// IsPressed reads the pin directly and returns whether the button is
// currently pressed, honoring the pull wiring.
func (b *Button) IsPressed() (bool, error) {
	v, err := b.line.Read()
	if err != nil {
		return false, err
	}

	if b.cfg.Pull == gpio.BiasPullUp {
		return !v, nil
	}
	return v, nil
}

// IsActive implements Readable.
func (b *Button) IsActive() (bool, error) {
	return b.IsPressed()
}

func (b *Button) watch() {
	defer close(b.finished)

	t := time.NewTicker(b.cfg.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-t.C:
		}

		pressed, err := b.IsPressed()
		if err != nil {
			continue
		}

		b.mutex.Lock()
		last := b.pressed
		b.mutex.Unlock()

		if pressed == last {
			continue
		}

		// A transition must survive the debounce interval before it
		// counts.
		if b.cfg.Debounce > 0 {
			if !sleepOrStop(b.cfg.Debounce, b.done) {
				return
			}

			pressed, err = b.IsPressed()
			if err != nil || pressed == last {
				continue
			}
		}

		b.report(pressed)
	}
}

func (b *Button) report(pressed bool) {
	b.mutex.Lock()
	b.pressed = pressed
	for ch := range b.waiters {
		select {
		case ch <- pressed:
		default:
		}
	}
	b.mutex.Unlock()

	b.debug("Button state changed", logrus.Fields{
		"line":    b.line.Offset(),
		"pressed": pressed,
	})

	if pressed {
		if b.cfg.WhenPressed != nil {
			b.cfg.WhenPressed()
		}
	} else {
		if b.cfg.WhenReleased != nil {
			b.cfg.WhenReleased()
		}
	}
}

func (b *Button) addWaiter() chan bool {
	ch := make(chan bool, 1)

	b.mutex.Lock()
	b.waiters[ch] = struct{}{}
	b.mutex.Unlock()

	return ch
}

func (b *Button) removeWaiter(ch chan bool) {
	b.mutex.Lock()
	delete(b.waiters, ch)
	b.mutex.Unlock()
}

// WaitForPress blocks until the button is pressed or the context is
// cancelled. If the button is already pressed it returns immediately.
func (b *Button) WaitForPress(ctx context.Context) error {
	return b.waitFor(ctx, true)
}

// WaitForRelease blocks until the button is released or the context is
// cancelled.
func (b *Button) WaitForRelease(ctx context.Context) error {
	return b.waitFor(ctx, false)
}

func (b *Button) waitFor(ctx context.Context, want bool) error {
	ch := b.addWaiter()
	defer b.removeWaiter(ch)

	b.mutex.Lock()
	cur := b.pressed
	closed := b.closed
	b.mutex.Unlock()

	if closed {
		return gpio.ErrorClosed
	}
	if cur == want {
		return nil
	}

	for {
		select {
		case pressed := <-ch:
			if pressed == want {
				return nil
			}
		case <-b.done:
			return gpio.ErrorClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the watcher and releases the line. Pending WaitFor calls
// return gpio.ErrorClosed.
func (b *Button) Close() error {
	b.mutex.Lock()
	if b.closed {
		b.mutex.Unlock()
		return nil
	}
	b.closed = true
	b.mutex.Unlock()

	close(b.done)
	<-b.finished

	return b.line.Release()
}
