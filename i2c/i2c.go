// Package i2c provides access to I2C buses through the Linux
// /dev/i2c-N interface, using combined transfers (I2C_RDWR). Sensor
// and display drivers talk to a Conn, so they can be tested against a
// fake bus.
package i2c

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

// Conn is a write then read transaction endpoint bound to one device
// address. Either buffer may be nil.
type Conn interface {
	Transfer(writeBuf []byte, readBuf []byte) error
}

// Bus is an open I2C bus. It is safe for concurrent use.
type Bus struct {
	mutex sync.Mutex
	file  *os.File
}

// OpenBus opens /dev/i2c-<busID>. It fails with an error wrapping
// gpio.ErrorDevice if the device does not exist or cannot be accessed.
func OpenBus(busID int) (*Bus, error) {
	file, err := os.OpenFile(fmt.Sprintf("/dev/i2c-%d", busID), unix.O_RDWR|unix.O_NOCTTY, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gpio.ErrorDevice, err)
	}

	return &Bus{file: file}, nil
}

func (b *Bus) Close() error {
	return b.file.Close()
}

// Transfer performs a write message followed by a read message to the
// given address in one bus transaction. A nil buffer skips that
// message. Buffers longer than 65535 bytes fail with
// gpio.ErrorOutOfRange.
func (b *Bus) Transfer(address uint16, writeBuf []byte, readBuf []byte) error {
	/* The kernel message length field is 16 bit */
	if len(writeBuf) > 0xFFFF || len(readBuf) > 0xFFFF {
		return gpio.ErrorOutOfRange
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	const i2cFlagsRead uint16 = 1
	const i2cRdWr uintptr = 0x00000707

	type msg struct {
		Address uint16
		Flags   uint16
		Len     uint16
		Buf     uintptr
	}

	var transfer []msg

	if len(writeBuf) > 0 {
		transfer = append(transfer, msg{
			Address: address,
			Len:     uint16(len(writeBuf)),
			Buf:     uintptr(unsafe.Pointer(&writeBuf[0])),
		})
	}
	if len(readBuf) > 0 {
		transfer = append(transfer, msg{
			Address: address,
			Flags:   i2cFlagsRead,
			Len:     uint16(len(readBuf)),
			Buf:     uintptr(unsafe.Pointer(&readBuf[0])),
		})
	}

	if len(transfer) == 0 {
		// A succesful, albeit useless, transfer
		return nil
	}

	type rdWrRaw struct {
		Messages    uintptr
		NumMessages uint32
	}

	param := rdWrRaw{
		Messages:    uintptr(unsafe.Pointer(&transfer[0])),
		NumMessages: uint32(len(transfer)),
	}

	_, _, errNo := unix.Syscall(unix.SYS_IOCTL, b.file.Fd(), i2cRdWr, uintptr(unsafe.Pointer(&param)))

	runtime.KeepAlive(transfer)
	runtime.KeepAlive(writeBuf)
	runtime.KeepAlive(readBuf)

	if errNo != 0 {
		return fmt.Errorf("I2C transfer failed: %w", errNo)
	}

	return nil
}
