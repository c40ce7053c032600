package gpio

import (
	"context"
)

// Direction configures whether a line drives its pin or senses it.
type Direction int

const (
	Input  Direction = 0
	Output Direction = 1
)

// Bias selects the internal pull resistor applied to an input line.
type Bias int

const (
	BiasNone     Bias = 0
	BiasPullUp   Bias = 1
	BiasPullDown Bias = 2
)

// Edge selects which level transitions WaitForEdge reports.
type Edge int

const (
	EdgeNone    Edge = 0
	EdgeRising  Edge = 1
	EdgeFalling Edge = 2
	EdgeBoth    Edge = EdgeRising | EdgeFalling
)

// ConsumerDefault is the consumer label attached to line requests that
// do not specify their own.
const ConsumerDefault = "gpiodzero"

// LineConfig describes how a line should be requested from a chip.
type LineConfig struct {
	Direction Direction

	// Bias is only meaningful for input lines.
	Bias Bias

	// Edge enables edge detection on an input line. Lines requested
	// without edge detection return ErrorNotSupported from WaitForEdge.
	Edge Edge

	// ActiveLow inverts the logical value relative to the electrical
	// level, for both reads and writes.
	ActiveLow bool

	// InitialValue is the logical value driven by an output line
	// immediately after the request.
	InitialValue bool

	// Consumer is the label other processes see on the reserved line.
	// Empty means ConsumerDefault.
	Consumer string
}

// ChipInfo describes one GPIO controller.
type ChipInfo struct {
	Name  string
	Label string
	Lines int
}

// Chip is one GPIO controller from which individual lines can be
// requested. A line is reserved by at most one owner at a time, so a
// second request for the same offset fails with ErrorBusy until the
// first handle is released.
type Chip interface {
	Info() ChipInfo

	// RequestLine reserves one line. It fails with ErrorInvalidOffset
	// if the offset does not exist on the chip, and with ErrorBusy if
	// the line is already reserved.
	RequestLine(offset int, cfg LineConfig) (Line, error)

	Close() error
}

// Line is one reserved GPIO line. All values are logical: if the line
// was requested with ActiveLow, the inversion has already been applied.
type Line interface {
	Offset() int

	// Read returns the current logical value. It fails with
	// ErrorClosed after Release.
	Read() (bool, error)

	// Write drives the logical value on an output line. It fails with
	// ErrorClosed after Release and ErrorNotSupported on input lines.
	Write(value bool) error

	// WaitForEdge blocks until a configured edge occurs or the context
	// is cancelled. It fails with ErrorNotSupported if the line was
	// requested without edge detection.
	WaitForEdge(ctx context.Context) (Edge, error)

	// Release returns the line to the chip. It can safely be called
	// multiple times.
	Release() error
}
