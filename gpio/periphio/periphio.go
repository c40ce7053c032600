// Package periphio implements gpio.Chip on top of the periph.io host
// drivers. It addresses pins through the periph.io registry by their
// BCM style names (GPIO2, GPIO3, ...), which is convenient on boards
// where periph.io already knows the pin mapping. periph.io has no
// reservation concept, so exclusivity is tracked by a gpio.Registry
// owned by the chip.
package periphio

import (
	"context"
	"fmt"
	"sync"
	"time"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

// Chip exposes the periph.io pin registry as a gpio.Chip.
type Chip struct {
	registry *gpio.Registry
	info     gpio.ChipInfo
}

// Open initialises the periph.io host and returns a chip covering the
// registered pins. host.Init is safe to call multiple times.
func Open() (*Chip, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", gpio.ErrorDevice, err)
	}

	return &Chip{
		registry: gpio.NewRegistry(),
		info: gpio.ChipInfo{
			Name:  "periphio",
			Label: "periph.io host",
			Lines: len(gpioreg.All()),
		},
	}, nil
}

func (c *Chip) Info() gpio.ChipInfo {
	return c.info
}

func (c *Chip) Close() error {
	return nil
}

func (c *Chip) RequestLine(offset int, cfg gpio.LineConfig) (gpio.Line, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", offset))
	if p == nil {
		return nil, gpio.ErrorInvalidOffset
	}

	claim, err := c.registry.Claim(offset, cfg.Consumer)
	if err != nil {
		return nil, err
	}

	l := &line{
		chip:   c,
		pin:    p,
		offset: offset,
		cfg:    cfg,
		claim:  claim,
	}

	if err := l.configure(); err != nil {
		c.registry.Release(claim)
		return nil, err
	}

	return l, nil
}

type line struct {
	chip   *Chip
	pin    pgpio.PinIO
	offset int
	cfg    gpio.LineConfig
	claim  *gpio.Claim

	mutex    sync.Mutex
	released bool
}

func (l *line) configure() error {
	if l.cfg.Direction == gpio.Output {
		return l.pin.Out(l.toLevel(l.cfg.InitialValue))
	}

	pull := pgpio.Float
	switch l.cfg.Bias {
	case gpio.BiasPullUp:
		pull = pgpio.PullUp
	case gpio.BiasPullDown:
		pull = pgpio.PullDown
	}

	edge := pgpio.NoEdge
	switch l.cfg.Edge {
	case gpio.EdgeRising:
		edge = pgpio.RisingEdge
	case gpio.EdgeFalling:
		edge = pgpio.FallingEdge
	case gpio.EdgeBoth:
		edge = pgpio.BothEdges
	}

	return l.pin.In(pull, edge)
}

// toLevel converts a logical value to the electrical level, applying
// ActiveLow (periph.io has no native active low handling).
func (l *line) toLevel(value bool) pgpio.Level {
	if value != l.cfg.ActiveLow {
		return pgpio.High
	}
	return pgpio.Low
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

	return (l.pin.Read() == pgpio.High) != l.cfg.ActiveLow, nil
}

func (l *line) Write(value bool) error {
	if l.cfg.Direction != gpio.Output {
		return gpio.ErrorNotSupported
	}
	if l.isReleased() {
		return gpio.ErrorClosed
	}

	return l.pin.Out(l.toLevel(value))
}

func (l *line) WaitForEdge(ctx context.Context) (gpio.Edge, error) {
	if l.cfg.Edge == gpio.EdgeNone {
		return gpio.EdgeNone, gpio.ErrorNotSupported
	}

	for {
		if l.isReleased() {
			return gpio.EdgeNone, gpio.ErrorClosed
		}
		if err := ctx.Err(); err != nil {
			return gpio.EdgeNone, err
		}

		if !l.pin.WaitForEdge(100 * time.Millisecond) {
			continue
		}

		if l.pin.Read() == pgpio.High {
			return gpio.EdgeRising, nil
		}
		return gpio.EdgeFalling, nil
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

	return l.pin.Halt()
}
