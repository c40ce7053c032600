// Package gpiosim provides an in-memory gpio.Chip for tests and for
// running on machines without GPIO hardware. Inputs can be driven from
// test code with SetInput and output activity can be inspected with
// Level, Writes and WriteCount.
package gpiosim

import (
	"context"
	"sync"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

type waiter struct {
	mask gpio.Edge
	ch   chan gpio.Edge
}

type lineState struct {
	level  bool
	driven bool
	writes []bool

	waiters map[*waiter]struct{}
}

// Chip is a simulated GPIO controller.
type Chip struct {
	mutex    sync.Mutex
	info     gpio.ChipInfo
	registry *gpio.Registry
	lines    []lineState
	closed   bool
}

// New creates a simulated chip with the given number of lines. All
// lines start released at a low level.
func New(name string, numLines int) *Chip {
	c := &Chip{
		info: gpio.ChipInfo{
			Name:  name,
			Label: "gpiodzero-sim",
			Lines: numLines,
		},
		registry: gpio.NewRegistry(),
		lines:    make([]lineState, numLines),
	}

	for i := range c.lines {
		c.lines[i].waiters = make(map[*waiter]struct{})
	}

	return c
}

func (c *Chip) Info() gpio.ChipInfo {
	return c.info
}

func (c *Chip) Close() error {
	c.mutex.Lock()
	c.closed = true
	c.mutex.Unlock()

	return nil
}

func (c *Chip) RequestLine(offset int, cfg gpio.LineConfig) (gpio.Line, error) {
	if offset < 0 || offset >= c.info.Lines {
		return nil, gpio.ErrorInvalidOffset
	}

	c.mutex.Lock()
	closed := c.closed
	c.mutex.Unlock()
	if closed {
		return nil, gpio.ErrorClosed
	}

	claim, err := c.registry.Claim(offset, cfg.Consumer)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	ls := &c.lines[offset]

	if cfg.Direction == gpio.Output {
		c.setLevelLocked(offset, cfg.InitialValue != cfg.ActiveLow, true)
	} else if !ls.driven {
		// An undriven input floats to the level set by its pull.
		ls.level = cfg.Bias == gpio.BiasPullUp
	}
	c.mutex.Unlock()

	return &line{chip: c, offset: offset, cfg: cfg, claim: claim}, nil
}

// SetInput drives the electrical level of a line from the outside, as
// a button or sensor would. Waiters blocked in WaitForEdge observe the
// transition.
func (c *Chip) SetInput(offset int, level bool) {
	c.mutex.Lock()
	c.lines[offset].driven = true
	c.setLevelLocked(offset, level, false)
	c.mutex.Unlock()
}

// Level returns the current electrical level of a line.
func (c *Chip) Level(offset int) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.lines[offset].level
}

// WriteCount returns how many writes have been performed on a line
// since the chip was created.
func (c *Chip) WriteCount(offset int) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.lines[offset].writes)
}

// Writes returns a copy of the electrical levels written to a line, in
// order.
func (c *Chip) Writes(offset int) []bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	out := make([]bool, len(c.lines[offset].writes))
	copy(out, c.lines[offset].writes)

	return out
}

func (c *Chip) setLevelLocked(offset int, level bool, isWrite bool) {
	ls := &c.lines[offset]

	old := ls.level
	ls.level = level
	if isWrite {
		ls.writes = append(ls.writes, level)
	}

	if old == level {
		return
	}

	edge := gpio.EdgeFalling
	if level {
		edge = gpio.EdgeRising
	}

	for w := range ls.waiters {
		if w.mask&edge == 0 {
			continue
		}

		select {
		case w.ch <- edge:
		default:
		}
	}
}

func (c *Chip) addWaiter(offset int, mask gpio.Edge) *waiter {
	w := &waiter{
		mask: mask,
		ch:   make(chan gpio.Edge, 1),
	}

	c.mutex.Lock()
	c.lines[offset].waiters[w] = struct{}{}
	c.mutex.Unlock()

	return w
}

func (c *Chip) removeWaiter(offset int, w *waiter) {
	c.mutex.Lock()
	delete(c.lines[offset].waiters, w)
	c.mutex.Unlock()
}

type line struct {
	chip   *Chip
	offset int
	cfg    gpio.LineConfig
	claim  *gpio.Claim

	mutex    sync.Mutex
	released bool
}

func (l *line) Offset() int {
	return l.offset
}

func (l *line) isReleased() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.released
}

func (l *line) Read() (bool, error) {
	if l.isReleased() {
		return false, gpio.ErrorClosed
	}

	return l.chip.Level(l.offset) != l.cfg.ActiveLow, nil
}

func (l *line) Write(value bool) error {
	if l.cfg.Direction != gpio.Output {
		return gpio.ErrorNotSupported
	}
	if l.isReleased() {
		return gpio.ErrorClosed
	}

	l.chip.mutex.Lock()
	l.chip.setLevelLocked(l.offset, value != l.cfg.ActiveLow, true)
	l.chip.mutex.Unlock()

	return nil
}

func (l *line) WaitForEdge(ctx context.Context) (gpio.Edge, error) {
	if l.cfg.Edge == gpio.EdgeNone {
		return gpio.EdgeNone, gpio.ErrorNotSupported
	}
	if l.isReleased() {
		return gpio.EdgeNone, gpio.ErrorClosed
	}

	w := l.chip.addWaiter(l.offset, l.cfg.Edge)
	defer l.chip.removeWaiter(l.offset, w)

	select {
	case edge := <-w.ch:
		return edge, nil
	case <-ctx.Done():
		return gpio.EdgeNone, ctx.Err()
	}
}

func (l *line) Release() error {
	l.mutex.Lock()
	released := l.released
	l.released = true
	l.mutex.Unlock()

	if released {
		return nil
	}

	l.chip.registry.Release(l.claim)

	return nil
}
