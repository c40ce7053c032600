package gpio

// Error is a constant error value.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrorDevice is returned when a GPIO controller cannot be opened.
	ErrorDevice = Error("GPIO device cannot be opened")

	// ErrorBusy is returned when a line is already reserved by another
	// owner.
	ErrorBusy = Error("Line is already requested")

	// ErrorInvalidOffset is returned when a line offset does not exist
	// on the chip.
	ErrorInvalidOffset = Error("Line offset out of range")

	// ErrorClosed is returned by operations on a released or closed
	// handle.
	ErrorClosed = Error("Handle was released")

	// ErrorOutOfRange is returned when a numeric parameter is outside
	// its documented range.
	ErrorOutOfRange = Error("Parameter out of range")

	// ErrorNotSupported is returned when the line or backend cannot
	// perform the requested operation.
	ErrorNotSupported = Error("Operation not supported")
)
