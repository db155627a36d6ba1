package core

import (
	"LoraReport/internal/device"
	"LoraReport/internal/model"
	"LoraReport/internal/report"
	"LoraReport/internal/schema"
	"LoraReport/internal/store"
	"LoraReport/internal/uplink"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Publisher receives every record the collector archives.
type Publisher interface {
	Publish(rec model.Record)
}

// Collector reads report frames from a Device, decodes them against the
// schema, archives them and hands them to a Publisher.
type Collector struct {
	ID        string
	Device    device.Device
	Schema    *schema.Registry
	Session   *uplink.Session // nil expects bare reports
	Store     *store.Store    // optional
	Publisher Publisher       // optional

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	log      *zap.Logger
	now      func() time.Time
}

// NewCollector constructs a Collector.
func NewCollector(id string, dev device.Device, reg *schema.Registry, st *store.Store, pub Publisher) *Collector {
	return &Collector{
		ID:        id,
		Device:    dev,
		Schema:    reg,
		Store:     st,
		Publisher: pub,
		stop:      make(chan struct{}),
		log:       zap.L().With(zap.String("collector", id)),
		now:       time.Now,
	}
}

// FrameSize is the number of bytes one frame occupies on the link.
func (c *Collector) FrameSize() int {
	if c.Session != nil {
		return uplink.FrameSize(report.MaxSize)
	}
	return report.MaxSize
}

// Start begins the read loop in a background goroutine.
func (c *Collector) Start() error {
	if c.Device == nil {
		return errors.New("collector device absent")
	}
	c.wg.Add(1)
	go c.loop()
	c.log.Info("collector started", zap.Int("frame_size", c.FrameSize()))
	return nil
}

func (c *Collector) loop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stop:
			return
		default:
		}
		frame, err := c.Device.ReadFrame(c.FrameSize(), 500*time.Millisecond)
		if errors.Is(err, device.ErrTimeout) {
			continue
		}
		if err != nil {
			select {
			case <-c.stop:
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if _, err := c.Handle(frame); err != nil {
			c.log.Warn("frame dropped", zap.Error(err))
		}
	}
}

// Handle decodes one frame, archives and publishes the resulting record.
func (c *Collector) Handle(frame []byte) (model.Record, error) {
	raw := frame
	var fCnt uint32
	if c.Session != nil {
		var err error
		raw, fCnt, err = c.Session.Open(frame)
		if err != nil {
			return model.Record{}, err
		}
	}
	rep, err := report.Decode(c.Schema, raw)
	if err != nil {
		return model.Record{}, err
	}

	rec := NewRecord(rep, raw, c.now())
	rec.FCnt = fCnt
	if c.Store != nil {
		if _, err := c.Store.Put(&rec); err != nil {
			return rec, err
		}
	}
	if c.Publisher != nil {
		c.Publisher.Publish(rec)
	}
	c.log.Debug("report received", zap.Uint64("seq", rec.Seq), zap.String("mode", rec.Mode), zap.Int("tasks", len(rec.Tasks)))
	return rec, nil
}

// NewRecord captures a decoded report as an archive record.
func NewRecord(rep *report.Report, raw []byte, received time.Time) model.Record {
	mode, _ := rep.Mode()
	rec := model.Record{
		Received:   received,
		Mode:       mode.String(),
		TemplateID: rep.TemplateID(),
		Tasks:      rep.Tasks(),
		Values:     make(map[uint8][]byte, rep.Len()),
		Raw:        append([]byte(nil), raw...),
	}
	for _, id := range rec.Tasks {
		v, err := rep.Read(id)
		if err == nil {
			rec.Values[id] = v
		}
	}
	return rec
}

// Stop stops the read loop and closes the device.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.Device != nil {
		_ = c.Device.Close()
	}
	c.wg.Wait()
}
