// Package device defines a unified interface for links that carry report frames,
// such as LoRa modules attached over a serial port.
package device

import (
	"errors"
	"time"
)

// ErrTimeout is returned by ReadFrame when no complete frame arrived in time.
var ErrTimeout = errors.New("read timeout")

// ErrFrameSize is returned by ReadFrame when a read left pending by a timeout
// was started for a different frame size.
var ErrFrameSize = errors.New("frame size differs from pending read")

// Device carries fixed-size binary frames. Reports have no delimiter on the
// wire, so both ends agree on the frame size out of band.
type Device interface {
	// ReadFrame reads exactly size bytes. If timeout > 0 it returns
	// ErrTimeout when the frame is not complete after timeout. The next
	// call must ask for the same size.
	ReadFrame(size int, timeout time.Duration) ([]byte, error)

	// WriteFrame writes b as one frame.
	WriteFrame(b []byte) error

	// Close closes the device and releases underlying resources.
	Close() error
}
