package core

import (
	"LoraReport/internal/device"
	"LoraReport/internal/queue"
	"LoraReport/internal/report"
	"LoraReport/internal/schema"
	"LoraReport/internal/uplink"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNothingToSend is returned by SendOnce when no queued message fits a report.
var ErrNothingToSend = errors.New("nothing to send")

// Reporter periodically drains the message queue into reports and writes
// them to a Device, optionally inside LoRaWAN frames.
type Reporter struct {
	ID         string
	Device     device.Device
	Schema     *schema.Registry
	Queue      *queue.Queue
	Mode       report.Mode
	TemplateID uint8
	Interval   time.Duration
	Session    *uplink.Session // nil sends bare reports

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	log      *zap.Logger
}

// NewReporter constructs a Reporter. Start validates the mode settings.
func NewReporter(id string, dev device.Device, reg *schema.Registry, q *queue.Queue, mode report.Mode, templateID uint8, interval time.Duration) *Reporter {
	return &Reporter{
		ID:         id,
		Device:     dev,
		Schema:     reg,
		Queue:      q,
		Mode:       mode,
		TemplateID: templateID,
		Interval:   interval,
		stop:       make(chan struct{}),
		log:        zap.L().With(zap.String("reporter", id)),
	}
}

func (r *Reporter) validate() error {
	switch r.Mode {
	case report.ModeKeyValue:
		return nil
	case report.ModeTemplate:
		if r.TemplateID == 0 {
			return report.ErrTemplateIDRequired
		}
		_, err := r.Schema.Template(r.TemplateID)
		return err
	default:
		return fmt.Errorf("%w: reporter cannot fill %s reports", report.ErrUnsupportedType, r.Mode)
	}
}

// Start begins the periodic sender.
func (r *Reporter) Start() error {
	if err := r.validate(); err != nil {
		return err
	}
	if r.Device == nil {
		return errors.New("reporter device absent")
	}
	if r.Interval <= 0 {
		return fmt.Errorf("invalid reporter interval %s", r.Interval)
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				if err := r.SendOnce(); err != nil && !errors.Is(err, ErrNothingToSend) {
					r.log.Warn("report not sent", zap.Error(err))
				}
			}
		}
	}()
	r.log.Info("reporter started", zap.Stringer("mode", r.Mode), zap.Duration("interval", r.Interval))
	return nil
}

// accept returns the admission rule for the configured mode: template
// reports take the template's tasks, key-value reports take tasks while
// their id and payload still fit.
func (r *Reporter) accept() (queue.Accept, error) {
	if r.Mode == report.ModeTemplate {
		tpl, err := r.Schema.Template(r.TemplateID)
		if err != nil {
			return nil, err
		}
		members := make(map[uint8]bool, len(tpl.TaskOrder))
		for _, id := range tpl.TaskOrder {
			members[id] = true
		}
		return func(taskID uint8, _ int) bool { return members[taskID] }, nil
	}
	budget := report.MaxSize*8 - report.ModeBits
	return func(_ uint8, width int) bool {
		cost := schema.TaskIDBits + width
		if cost > budget {
			return false
		}
		budget -= cost
		return true
	}, nil
}

// SendOnce builds one report from the queue and writes it. Messages are
// acknowledged when the write succeeds and handed back otherwise.
func (r *Reporter) SendOnce() error {
	accept, err := r.accept()
	if err != nil {
		return err
	}
	rep := report.New(r.Schema)
	ids := r.Queue.Fill(rep, accept)
	if len(ids) == 0 {
		return ErrNothingToSend
	}

	frame, err := rep.Bytes(r.Mode, r.TemplateID)
	if err == nil && r.Session != nil {
		frame, err = r.Session.Seal(frame)
	}
	if err == nil {
		err = r.Device.WriteFrame(frame)
	}
	if err != nil {
		r.Queue.Nack(ids)
		return err
	}
	sent := r.Queue.Ack(ids)
	r.log.Debug("report sent", zap.Int("messages", len(sent)), zap.Int("bytes", len(frame)))
	return nil
}

// Stop stops the sender and closes the device.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	if r.Device != nil {
		_ = r.Device.Close()
	}
}
