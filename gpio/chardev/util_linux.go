package chardev

import (
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

func ioctlPtr(f *os.File, function uintptr, data unsafe.Pointer) error {
	_, _, errNo := unix.Syscall(
		unix.SYS_IOCTL,
		f.Fd(),
		function,
		uintptr(data),
	)
	if errNo != 0 {
		return errNo
	}

	return nil
}

func bytesToString(input []byte) string {
	return strings.TrimRight(string(input), "\x00")
}

func stringToBytes(input string, output []byte) {
	n := copy(output, input)

	if n >= len(output) {
		n = len(output) - 1
	}

	// Null terminate string
	output[n] = 0
}
