// Package uplink wraps report bytes into LoRaWAN 1.0 unconfirmed data-up
// frames (ABP session keys) and unwraps them on the receiving side.
package uplink

import (
	"LoraReport/internal/model"
	"errors"
	"fmt"
	"sync"

	"github.com/brocaar/lorawan"
)

// Overhead is the number of PHYPayload bytes around FRMPayload:
// MHDR(1) DevAddr(4) FCtrl(1) FCnt(2) FPort(1) MIC(4).
const Overhead = 13

var (
	ErrInvalidMIC      = errors.New("invalid MIC")
	ErrNotDataUp       = errors.New("not an unconfirmed data-up frame")
	ErrDevAddrMismatch = errors.New("device address mismatch")
)

// Session is an activated LoRaWAN end-device session.
type Session struct {
	DevAddr lorawan.DevAddr
	AppSKey lorawan.AES128Key
	NwkSKey lorawan.AES128Key
	FPort   uint8

	mu   sync.Mutex
	fCnt uint16
}

// FrameSize returns the PHYPayload length for a payload of n bytes.
func FrameSize(n int) int { return n + Overhead }

// NewSession parses hex-encoded ABP settings.
func NewSession(cfg model.LoRaWANConfig) (*Session, error) {
	s := &Session{FPort: cfg.FPort}
	if s.FPort == 0 {
		// FPort 0 is reserved for MAC commands.
		s.FPort = 1
	}
	if err := s.DevAddr.UnmarshalText([]byte(cfg.DevAddr)); err != nil {
		return nil, fmt.Errorf("lorawan dev_addr: %w", err)
	}
	if err := s.AppSKey.UnmarshalText([]byte(cfg.AppSKey)); err != nil {
		return nil, fmt.Errorf("lorawan app_s_key: %w", err)
	}
	if err := s.NwkSKey.UnmarshalText([]byte(cfg.NwkSKey)); err != nil {
		return nil, fmt.Errorf("lorawan nwk_s_key: %w", err)
	}
	return s, nil
}

// FCnt returns the frame counter the next Seal will use.
func (s *Session) FCnt() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fCnt
}

// Seal encrypts payload into a data-up frame and advances the frame counter.
func (s *Session) Seal(payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fPort := s.FPort
	phy := lorawan.PHYPayload{
		MHDR: lorawan.MHDR{
			MType: lorawan.UnconfirmedDataUp,
			Major: lorawan.LoRaWANR1,
		},
		MACPayload: &lorawan.MACPayload{
			FHDR: lorawan.FHDR{
				DevAddr: s.DevAddr,
				FCnt:    uint32(s.fCnt),
			},
			FPort:      &fPort,
			FRMPayload: []lorawan.Payload{&lorawan.DataPayload{Bytes: append([]byte(nil), payload...)}},
		},
	}
	if err := phy.EncryptFRMPayload(s.AppSKey); err != nil {
		return nil, fmt.Errorf("encrypt frm payload: %w", err)
	}
	if err := phy.SetUplinkDataMIC(lorawan.LoRaWAN1_0, 0, 0, 0, s.NwkSKey, s.NwkSKey); err != nil {
		return nil, fmt.Errorf("set mic: %w", err)
	}
	b, err := phy.MarshalBinary()
	if err != nil {
		return nil, err
	}
	s.fCnt++
	return b, nil
}

// Open validates and decrypts a data-up frame, returning the payload and the
// frame counter it was sent with.
func (s *Session) Open(frame []byte) ([]byte, uint32, error) {
	var phy lorawan.PHYPayload
	if err := phy.UnmarshalBinary(frame); err != nil {
		return nil, 0, fmt.Errorf("unmarshal phy payload: %w", err)
	}
	if phy.MHDR.MType != lorawan.UnconfirmedDataUp {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotDataUp, phy.MHDR.MType)
	}
	mac, ok := phy.MACPayload.(*lorawan.MACPayload)
	if !ok {
		return nil, 0, ErrNotDataUp
	}
	if mac.FHDR.DevAddr != s.DevAddr {
		return nil, 0, fmt.Errorf("%w: %s", ErrDevAddrMismatch, mac.FHDR.DevAddr)
	}
	valid, err := phy.ValidateUplinkDataMIC(lorawan.LoRaWAN1_0, 0, 0, 0, s.NwkSKey, s.NwkSKey)
	if err != nil {
		return nil, 0, fmt.Errorf("validate mic: %w", err)
	}
	if !valid {
		return nil, 0, ErrInvalidMIC
	}
	if err := phy.DecryptFRMPayload(s.AppSKey); err != nil {
		return nil, 0, fmt.Errorf("decrypt frm payload: %w", err)
	}
	if len(mac.FRMPayload) != 1 {
		return nil, 0, fmt.Errorf("%w: %d frm payload items", ErrNotDataUp, len(mac.FRMPayload))
	}
	data, ok := mac.FRMPayload[0].(*lorawan.DataPayload)
	if !ok {
		return nil, 0, ErrNotDataUp
	}
	return data.Bytes, mac.FHDR.FCnt, nil
}
