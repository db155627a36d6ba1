// Package core contains the runtime of LoraReport: the reporter that packs
// queued task messages into reports, the collector that decodes them, and
// the System that wires both from configuration.
package core

import (
	"LoraReport/internal/app"
	"LoraReport/internal/device"
	"LoraReport/internal/model"
	"LoraReport/internal/parser"
	"LoraReport/internal/queue"
	"LoraReport/internal/report"
	"LoraReport/internal/schema"
	"LoraReport/internal/store"
	"LoraReport/internal/uplink"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultIntervalMs = 5000
	defaultBaud       = 9600
	defaultDB         = "lora_report.db"
)

// System manages the lifecycle of the reporter and collector roles. Either
// role is left out when its device is not configured.
type System struct {
	Config *model.Config
	Schema *schema.Registry
	Queue  *queue.Queue

	Sampler   *Sampler
	Reporter  *Reporter
	Collector *Collector
	Store     *store.Store
	App       *app.App

	started   bool
	startLock sync.Mutex
}

// LoadConfig reads the YAML configuration at path.
func LoadConfig(path string) (*model.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg model.Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// NewSystem reads the configuration at cfgPath and constructs the System.
func NewSystem(cfgPath string) (*System, error) {
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New constructs a System from an already loaded configuration. Devices are
// opened here; the store is opened only for the collector role.
func New(cfg *model.Config) (*System, error) {
	reg, err := schema.FromConfig(cfg.Schema)
	if err != nil {
		return nil, err
	}
	s := &System{Config: cfg, Schema: reg, Queue: queue.New(reg)}

	var session *uplink.Session
	if cfg.LoRaWAN.Enable {
		if session, err = uplink.NewSession(cfg.LoRaWAN); err != nil {
			return nil, err
		}
	}

	if rc := cfg.Reporter; rc.Device != "" {
		if err := s.buildReporter(rc, session); err != nil {
			s.close()
			return nil, err
		}
	}
	if cc := cfg.Collector; cc.Device != "" {
		if err := s.buildCollector(cc, session); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *System) buildReporter(rc model.ReporterConfig, session *uplink.Session) error {
	mode, err := report.ParseMode(rc.Mode)
	if err != nil {
		return err
	}
	dev, err := device.NewSerialDevice(rc.Device, baudOr(rc.Baud))
	if err != nil {
		return err
	}
	interval := rc.IntervalMs
	if interval <= 0 {
		interval = defaultIntervalMs
	}
	s.Reporter = NewReporter("reporter", dev, s.Schema, s.Queue, mode, rc.TemplateID, time.Duration(interval)*time.Millisecond)
	s.Reporter.Session = session
	if rc.SampleInterval > 0 {
		s.Sampler = NewSampler(s.Schema, s.Queue, time.Duration(rc.SampleInterval)*time.Millisecond)
	}
	return nil
}

func (s *System) buildCollector(cc model.CollectorConfig, session *uplink.Session) error {
	format, err := parser.New(cc.Format)
	if err != nil {
		return err
	}
	path := cc.DB
	if path == "" {
		path = defaultDB
	}
	if s.Store, err = store.Open(path); err != nil {
		return err
	}
	dev, err := device.NewSerialDevice(cc.Device, baudOr(cc.Baud))
	if err != nil {
		return err
	}
	hub := app.NewHub(format)
	s.Collector = NewCollector("collector", dev, s.Schema, s.Store, hub)
	s.Collector.Session = session
	s.App = app.NewApp(s.Store, s.Schema, hub)
	return nil
}

func baudOr(b int) int {
	if b <= 0 {
		return defaultBaud
	}
	return b
}

// StartAll starts the configured roles.
func (s *System) StartAll() error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return nil
	}
	if s.Collector != nil {
		if err := s.Collector.Start(); err != nil {
			return err
		}
		go func() {
			if err := s.App.Start(s.Config.Collector.Addr); err != nil {
				zap.L().Error("app server stopped", zap.Error(err))
			}
		}()
	}
	if s.Reporter != nil {
		if err := s.Reporter.Start(); err != nil {
			if s.Collector != nil {
				s.Collector.Stop()
				s.App.Stop()
			}
			return err
		}
		if s.Sampler != nil {
			s.Sampler.Start()
		}
	}
	s.started = true
	return nil
}

// StopAll stops all running components gracefully.
func (s *System) StopAll() {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if !s.started {
		s.close()
		return
	}
	if s.Sampler != nil {
		s.Sampler.Stop()
	}
	if s.Reporter != nil {
		s.Reporter.Stop()
	}
	if s.Collector != nil {
		s.Collector.Stop()
		s.App.Stop()
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
	s.started = false
}

// close releases resources of a System that never started.
func (s *System) close() {
	if s.Reporter != nil && s.Reporter.Device != nil {
		_ = s.Reporter.Device.Close()
	}
	if s.Collector != nil && s.Collector.Device != nil {
		_ = s.Collector.Device.Close()
	}
	if s.Store != nil {
		_ = s.Store.Close()
	}
}
