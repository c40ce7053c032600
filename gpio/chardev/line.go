package chardev

import (
	"context"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

type handleDataRaw struct {
	values [64]uint8
}

type line struct {
	file   *os.File
	offset int
	cfg    gpio.LineConfig

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

	gd := handleDataRaw{}

	err := ioctlPtr(l.file, gpiohandleGetLineValuesIoctl, unsafe.Pointer(&gd))
	if err != nil {
		return false, err
	}

	return gd.values[0] > 0, nil
}

func (l *line) Write(value bool) error {
	if l.cfg.Direction != gpio.Output {
		return gpio.ErrorNotSupported
	}
	if l.isReleased() {
		return gpio.ErrorClosed
	}

	sd := handleDataRaw{}
	if value {
		sd.values[0] = 1
	}

	return ioctlPtr(l.file, gpiohandleSetLineValuesIoctl, unsafe.Pointer(&sd))
}

// eventDataRaw matches struct gpioevent_data on 64 bit platforms. On
// platforms where the kernel packs it to 12 bytes the trailing padding
// simply stays unused.
type eventDataRaw struct {
	Timestamp uint64
	ID        uint32
	_         uint32
}

const eventIDRising = 1
const eventIDFalling = 2

const pollIntervalMs = 100

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

		pfd := []unix.PollFd{{
			Fd:     int32(l.file.Fd()),
			Events: unix.POLLIN,
		}}

		// Wake up periodically to observe context cancellation
		n, err := unix.Poll(pfd, pollIntervalMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return gpio.EdgeNone, err
		}
		if n == 0 {
			continue
		}

		buf := make([]byte, eventDataSize)
		n, err = l.file.Read(buf)
		if err != nil {
			return gpio.EdgeNone, err
		}
		if n < 12 {
			continue
		}

		ev := (*eventDataRaw)(unsafe.Pointer(&buf[0]))
		switch ev.ID {
		case eventIDRising:
			return gpio.EdgeRising, nil
		case eventIDFalling:
			return gpio.EdgeFalling, nil
		}
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

	return l.file.Close()
}
