// Package device implements SerialDevice using go.bug.st/serial,
// which provides real serial communication support for LoRa modules.
package device

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	serial "go.bug.st/serial"
)

// StreamDevice implements Device over any byte stream.
type StreamDevice struct {
	rw io.ReadWriteCloser

	rmu     sync.Mutex
	pending chan frameResult // in-flight read left behind by a timeout
	psize   int              // frame size of pending
	wmu     sync.Mutex
}

type frameResult struct {
	frame []byte
	err   error
}

// NewStreamDevice wraps an already open stream, e.g. one end of a pipe.
func NewStreamDevice(rw io.ReadWriteCloser) *StreamDevice {
	return &StreamDevice{rw: rw}
}

// NewSerialDevice opens a serial device with the given path and baudrate.
func NewSerialDevice(dev string, baud int) (*StreamDevice, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial %s: %w", dev, err)
	}
	return NewStreamDevice(p), nil
}

// ReadFrame reads exactly size bytes. A read abandoned by a timeout keeps
// running and its frame is returned by the next call, so no bytes are lost
// and frame alignment is kept. While such a read is pending, a call with a
// different size fails with ErrFrameSize and leaves it pending.
func (s *StreamDevice) ReadFrame(size int, timeout time.Duration) ([]byte, error) {
	if s.rw == nil {
		return nil, errors.New("device not open")
	}
	s.rmu.Lock()
	defer s.rmu.Unlock()

	ch := s.pending
	if ch != nil && size != s.psize {
		return nil, fmt.Errorf("%w: pending %d bytes, asked %d", ErrFrameSize, s.psize, size)
	}
	if ch == nil {
		ch = make(chan frameResult, 1)
		go func() {
			buf := make([]byte, size)
			_, err := io.ReadFull(s.rw, buf)
			ch <- frameResult{buf, err}
		}()
	}
	s.pending = nil

	if timeout <= 0 {
		res := <-ch
		return res.frame, res.err
	}
	select {
	case res := <-ch:
		return res.frame, res.err
	case <-time.After(timeout):
		s.pending, s.psize = ch, size
		return nil, ErrTimeout
	}
}

// WriteFrame writes the frame in full.
func (s *StreamDevice) WriteFrame(b []byte) error {
	if s.rw == nil {
		return errors.New("device not open")
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := s.rw.Write(b)
	return err
}

// Close closes the underlying stream.
func (s *StreamDevice) Close() error {
	if s.rw == nil {
		return nil
	}
	return s.rw.Close()
}
