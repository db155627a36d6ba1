package device

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"
)

func TestStreamDeviceFrames(t *testing.T) {
	a, b := net.Pipe()
	tx := NewStreamDevice(a)
	rx := NewStreamDevice(b)
	defer tx.Close()
	defer rx.Close()

	frame := bytes.Repeat([]byte{0xA5}, 320)
	errc := make(chan error, 1)
	go func() { errc <- tx.WriteFrame(frame) }()

	got, err := rx.ReadFrame(len(frame), time.Second)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Fatal("frame mismatch")
	}
	if err := <-errc; err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
}

func TestStreamDeviceTimeoutKeepsFrame(t *testing.T) {
	a, b := net.Pipe()
	tx := NewStreamDevice(a)
	rx := NewStreamDevice(b)
	defer tx.Close()
	defer rx.Close()

	if _, err := rx.ReadFrame(4, 20*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	go func() { _ = tx.WriteFrame([]byte{1, 2, 3, 4}) }()
	got, err := rx.ReadFrame(4, time.Second)
	if err != nil {
		t.Fatalf("ReadFrame after timeout: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("got %v", got)
	}
}

func TestStreamDevicePendingSizeMismatch(t *testing.T) {
	a, b := net.Pipe()
	tx := NewStreamDevice(a)
	rx := NewStreamDevice(b)
	defer tx.Close()
	defer rx.Close()

	if _, err := rx.ReadFrame(4, 20*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if _, err := rx.ReadFrame(8, time.Second); !errors.Is(err, ErrFrameSize) {
		t.Fatalf("expected ErrFrameSize, got %v", err)
	}

	go func() { _ = tx.WriteFrame([]byte{5, 6, 7, 8}) }()
	got, err := rx.ReadFrame(4, time.Second)
	if err != nil {
		t.Fatalf("ReadFrame with pending size: %v", err)
	}
	if !bytes.Equal(got, []byte{5, 6, 7, 8}) {
		t.Fatalf("got %v", got)
	}
}

func TestStreamDeviceClosedPeer(t *testing.T) {
	a, b := net.Pipe()
	rx := NewStreamDevice(b)
	_ = a.Close()
	if _, err := rx.ReadFrame(8, time.Second); err == nil {
		t.Fatal("expected error reading from closed pipe")
	}
}

func TestNilStreamDevice(t *testing.T) {
	var d StreamDevice
	if err := d.WriteFrame([]byte{1}); err == nil {
		t.Fatal("expected error on unopened device")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
