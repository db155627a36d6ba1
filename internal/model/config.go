// Package model defines shared configuration structures used to initialize LoraReport.
// It includes logging, schema, reporter, collector and LoRaWAN session settings.
package model

// Config represents the root structure loaded from configs/config.yml.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Schema    SchemaConfig    `yaml:"schema"`
	Reporter  ReporterConfig  `yaml:"reporter"`
	Collector CollectorConfig `yaml:"collector"`
	LoRaWAN   LoRaWANConfig   `yaml:"lorawan"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	Level       string         `yaml:"level"`   // debug, info, warn, error
	Format      string         `yaml:"format"`  // console or json
	Outputs     []string       `yaml:"outputs"` // stdout, stderr or file paths
	Development bool           `yaml:"development"`
	Rotation    RotationConfig `yaml:"rotation"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool `yaml:"enable"`
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// SchemaConfig lists the task and template definitions shared by both ends of a link.
type SchemaConfig struct {
	Tasks     []TaskConfig     `yaml:"tasks"`
	Templates []TemplateConfig `yaml:"templates"`
}

// TaskConfig defines a single telemetry task.
type TaskConfig struct {
	ID                uint8  `yaml:"id"`
	Name              string `yaml:"name"`
	ReportMessageSize int    `yaml:"report_message_size"` // payload width in bits
}

// TemplateConfig defines a fixed task layout.
type TemplateConfig struct {
	ID    uint8   `yaml:"id"`
	Name  string  `yaml:"name"`
	Tasks []uint8 `yaml:"tasks"`
}

// ReporterConfig defines the uplink side: which device reports are written to and how often.
type ReporterConfig struct {
	Device         string `yaml:"device"`
	Baud           int    `yaml:"baud"`
	Mode           string `yaml:"mode"`        // template or key_value
	TemplateID     uint8  `yaml:"template_id"` // required for template mode
	IntervalMs     int    `yaml:"interval_ms"`
	SampleInterval int    `yaml:"sample_interval_ms"` // simulated sampler period
}

// CollectorConfig defines the receiving side.
type CollectorConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	Addr   string `yaml:"addr"`   // HTTP/websocket listen address
	DB     string `yaml:"db"`     // bbolt archive path
	Format string `yaml:"format"` // csv or json rendering of records
}

// LoRaWANConfig holds ABP session keys. Framing is disabled when Enable is false.
type LoRaWANConfig struct {
	Enable  bool   `yaml:"enable"`
	DevAddr string `yaml:"dev_addr"` // 8 hex digits
	AppSKey string `yaml:"app_s_key"`
	NwkSKey string `yaml:"nwk_s_key"`
	FPort   uint8  `yaml:"f_port"`
}
