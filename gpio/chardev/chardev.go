// Package chardev implements gpio.Chip on top of the Linux GPIO
// character device (/dev/gpiochipN), using the v1 handle and event
// ioctls. Line exclusivity is enforced by the kernel.
package chardev

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

// Chip is an open GPIO character device.
type Chip struct {
	file      *os.File
	info      gpio.ChipInfo
	lineNames map[string]int
}

// Open opens /dev/gpiochip<N>.
func Open(chip int) (*Chip, error) {
	return OpenPath(fmt.Sprintf("/dev/gpiochip%d", chip))
}

// OpenPath opens a GPIO character device by path. It fails with an
// error wrapping gpio.ErrorDevice if the device does not exist or
// cannot be accessed.
func OpenPath(path string) (*Chip, error) {
	file, err := os.OpenFile(path, unix.O_RDWR|unix.O_NOCTTY, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gpio.ErrorDevice, err)
	}

	c := &Chip{file: file}

	if err := c.readChipInfo(); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %v", gpio.ErrorDevice, err)
	}

	if err := c.readLineNames(); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %v", gpio.ErrorDevice, err)
	}

	return c, nil
}

func (c *Chip) readChipInfo() error {
	type chipInfoRaw struct {
		Name  [32]byte
		Label [32]byte
		Lines uint32
	}
	var ci chipInfoRaw

	err := ioctlPtr(c.file, gpioGetChipinfoIoctl, unsafe.Pointer(&ci))
	if err != nil {
		return err
	}

	c.info.Name = bytesToString(ci.Name[:])
	c.info.Label = bytesToString(ci.Label[:])
	c.info.Lines = int(ci.Lines)

	return nil
}

func (c *Chip) readLineNames() error {
	names := make(map[string]int)

	for i := 0; i < c.info.Lines; i++ {
		info, err := c.LineInfo(i)
		if err != nil {
			return err
		}

		if info.Name != "" {
			names[info.Name] = i
		}
	}

	c.lineNames = names

	return nil
}

func (c *Chip) Info() gpio.ChipInfo {
	return c.info
}

func (c *Chip) Close() error {
	return c.file.Close()
}

// LineInfo describes one line as reported by the kernel.
type LineInfo struct {
	Offset   int
	Flags    LineFlag
	Name     string
	Consumer string
}

func (c *Chip) LineInfo(offset int) (LineInfo, error) {
	result := LineInfo{Offset: offset}

	if offset < 0 || offset >= c.info.Lines {
		return result, gpio.ErrorInvalidOffset
	}

	type lineInfoRaw struct {
		LineOffset uint32
		Flags      uint32
		Name       [32]byte
		Consumer   [32]byte
	}

	li := lineInfoRaw{LineOffset: uint32(offset)}

	err := ioctlPtr(c.file, gpioGetLineinfoIoctl, unsafe.Pointer(&li))
	if err != nil {
		return result, err
	}

	result.Flags = LineFlag(li.Flags)
	result.Name = bytesToString(li.Name[:])
	result.Consumer = bytesToString(li.Consumer[:])

	return result, nil
}

// LookupLine resolves a line name, as listed by the device tree, to
// its offset.
func (c *Chip) LookupLine(name string) (int, bool) {
	offset, found := c.lineNames[name]
	return offset, found
}

func (c *Chip) RequestLine(offset int, cfg gpio.LineConfig) (gpio.Line, error) {
	if offset < 0 || offset >= c.info.Lines {
		return nil, gpio.ErrorInvalidOffset
	}

	consumer := cfg.Consumer
	if consumer == "" {
		consumer = gpio.ConsumerDefault
	}

	var flags requestFlag

	if cfg.Direction == gpio.Output {
		flags |= requestOutput
	} else {
		flags |= requestInput

		switch cfg.Bias {
		case gpio.BiasPullUp:
			flags |= requestBiasPullUp
		case gpio.BiasPullDown:
			flags |= requestBiasPullDown
		}
	}

	if cfg.ActiveLow {
		flags |= requestActiveLow
	}

	var fd int32
	var err error

	if cfg.Edge != gpio.EdgeNone {
		if cfg.Direction != gpio.Input {
			return nil, gpio.ErrorNotSupported
		}
		fd, err = c.requestEvent(offset, flags, cfg.Edge, consumer)
	} else {
		fd, err = c.requestHandle(offset, flags, cfg.InitialValue, consumer)
	}

	if err != nil {
		return nil, mapRequestError(err)
	}

	return &line{
		file:   os.NewFile(uintptr(fd), consumer),
		offset: offset,
		cfg:    cfg,
	}, nil
}

func (c *Chip) requestHandle(offset int, flags requestFlag, initial bool, consumer string) (int32, error) {
	type handleRequestRaw struct {
		LineOffsets   [64]uint32
		Flags         uint32
		DefaultValues [64]uint8
		ConsumerLabel [32]byte
		Lines         uint32
		Fd            int32
	}

	req := handleRequestRaw{
		Flags: uint32(flags),
		Lines: 1,
	}
	req.LineOffsets[0] = uint32(offset)
	if initial {
		req.DefaultValues[0] = 1
	}
	stringToBytes(consumer, req.ConsumerLabel[:])

	err := ioctlPtr(c.file, gpioGetLinehandleIoctl, unsafe.Pointer(&req))
	if err != nil {
		return 0, err
	}

	if req.Fd <= 0 {
		return 0, errors.New("Invalid file descriptor returned")
	}

	return req.Fd, nil
}

func (c *Chip) requestEvent(offset int, flags requestFlag, edge gpio.Edge, consumer string) (int32, error) {
	type eventRequestRaw struct {
		LineOffset    uint32
		HandleFlags   uint32
		EventFlags    uint32
		ConsumerLabel [32]byte
		Fd            int32
	}

	var events eventFlag
	if edge&gpio.EdgeRising != 0 {
		events |= eventRisingEdge
	}
	if edge&gpio.EdgeFalling != 0 {
		events |= eventFallingEdge
	}

	req := eventRequestRaw{
		LineOffset:  uint32(offset),
		HandleFlags: uint32(flags),
		EventFlags:  uint32(events),
	}
	stringToBytes(consumer, req.ConsumerLabel[:])

	err := ioctlPtr(c.file, gpioGetLineeventIoctl, unsafe.Pointer(&req))
	if err != nil {
		return 0, err
	}

	if req.Fd <= 0 {
		return 0, errors.New("Invalid file descriptor returned")
	}

	return req.Fd, nil
}

func mapRequestError(err error) error {
	switch {
	case errors.Is(err, unix.EBUSY):
		return gpio.ErrorBusy
	case errors.Is(err, unix.EINVAL):
		return fmt.Errorf("%w: %v", gpio.ErrorInvalidOffset, err)
	default:
		return fmt.Errorf("Line request failed: %w", err)
	}
}
