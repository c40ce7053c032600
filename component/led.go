package component

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

// LEDConfig configures a LED. The zero value is valid.
type LEDConfig struct {
	// ActiveLow marks a LED wired between the pin and the supply rail,
	// so that driving the pin low turns it on.
	ActiveLow bool

	// Consumer overrides the label on the reserved line.
	Consumer string

	// Logger receives debug output. Nil disables logging.
	Logger *logrus.Entry
}

// LED drives a single LED on one output line.
type LED struct {
	debugLogger

	line  gpio.Line
	blink toggler
}

// NewLED reserves the line and creates a LED, initially off.
func NewLED(chip gpio.Chip, offset int, cfg LEDConfig) (*LED, error) {
	line, err := chip.RequestLine(offset, gpio.LineConfig{
		Direction: gpio.Output,
		ActiveLow: cfg.ActiveLow,
		Consumer:  cfg.Consumer,
	})
	if err != nil {
		return nil, err
	}

	l := &LED{
		debugLogger: debugLogger{cfg.Logger},
		line:        line,
	}

	l.debug("LED created", logrus.Fields{"line": offset})

	return l, nil
}

// On turns the LED on. A running blink cycle is cancelled first.
func (l *LED) On() error {
	l.blink.stop()
	return l.line.Write(true)
}

// Off turns the LED off and cancels any running blink cycle. When Off
// returns the line is low and no further toggles can occur. Calling
// Off on a LED that is already off is harmless.
func (l *LED) Off() error {
	l.blink.stop()
	return l.line.Write(false)
}

// Toggle inverts the current state.
func (l *LED) Toggle() error {
	l.blink.stop()

	v, err := l.line.Read()
	if err != nil {
		return err
	}

	return l.line.Write(!v)
}

// IsLit returns whether the LED is currently on.
func (l *LED) IsLit() (bool, error) {
	return l.line.Read()
}

// IsActive implements Readable.
func (l *LED) IsActive() (bool, error) {
	return l.IsLit()
}

// Blink toggles the LED in the background until Off or Close is
// called. Starting a new blink replaces the running one. Both
// durations must be positive.
func (l *LED) Blink(onTime, offTime time.Duration) error {
	if onTime <= 0 || offTime <= 0 {
		return gpio.ErrorOutOfRange
	}

	l.debug("Blink started", logrus.Fields{
		"line": l.line.Offset(),
		"on":   onTime,
		"off":  offTime,
	})

	l.blink.start(func(stop <-chan struct{}) {
		for {
			l.line.Write(true)
			if !sleepOrStop(onTime, stop) {
				return
			}

			l.line.Write(false)
			if !sleepOrStop(offTime, stop) {
				return
			}
		}
	})

	return nil
}

// Close turns the LED off and releases its line.
func (l *LED) Close() error {
	l.blink.stop()
	l.line.Write(false)

	return l.line.Release()
}
