package config

import (
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/telemetry"
	"codeberg.org/mutker/rangefinder/internal/watch"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultWatchConfigPath = "/etc/rangewatch.toml"
	DefaultWatchEnvPrefix  = "RANGEWATCH"
	DefaultScanTimeout     = 30
	DefaultReconnectDelay  = 5
)

// WatchConfig configures the rangewatch central client
type WatchConfig struct {
	DeviceName     string `mapstructure:"device_name"`
	HCIDevice      int    `mapstructure:"hci_device"`
	ScanTimeout    int    `mapstructure:"scan_timeout"`
	ReconnectDelay int    `mapstructure:"reconnect_delay"`
	LogLevel       string `mapstructure:"log_level"`

	// PushConfig writes the telemetry record below after every connect
	PushConfig       bool `mapstructure:"push_config"`
	SampleIntervalMS int  `mapstructure:"sample_interval_ms"`
	NotifyIntervalMS int  `mapstructure:"notify_interval_ms"`
	MinRangeMM       int  `mapstructure:"min_range_mm"`
	MaxRangeMM       int  `mapstructure:"max_range_mm"`

	Mapping MappingSection `mapstructure:"mapping"`
}

// MappingSection is the [mapping] table: how readings become intensities
type MappingSection struct {
	Invert       bool    `mapstructure:"invert"`
	MinRangeMM   int     `mapstructure:"min_range_mm"`
	MaxRangeMM   int     `mapstructure:"max_range_mm"`
	MinIntensity float64 `mapstructure:"min_intensity"`
	MaxIntensity float64 `mapstructure:"max_intensity"`
	DeadzoneMM   int     `mapstructure:"deadzone_mm"`
	Smoothing    float64 `mapstructure:"smoothing"`
}

var watchFlags = map[string]string{
	"name":            "device_name",
	"hci":             "hci_device",
	"scan-timeout":    "scan_timeout",
	"reconnect-delay": "reconnect_delay",
	"log-level":       "log_level",
	"push-config":     "push_config",
	"sample-interval": "sample_interval_ms",
	"notify-interval": "notify_interval_ms",
	"min-range":       "min_range_mm",
	"max-range":       "max_range_mm",
	"invert":          "mapping.invert",
	"map-min-range":   "mapping.min_range_mm",
	"map-max-range":   "mapping.max_range_mm",
	"min-intensity":   "mapping.min_intensity",
	"max-intensity":   "mapping.max_intensity",
	"deadzone":        "mapping.deadzone_mm",
	"smoothing":       "mapping.smoothing",
}

func setWatchDefaults(v *viper.Viper) {
	v.SetDefault("device_name", DefaultDeviceName)
	v.SetDefault("hci_device", 0)
	v.SetDefault("scan_timeout", DefaultScanTimeout)
	v.SetDefault("reconnect_delay", DefaultReconnectDelay)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("push_config", false)
	v.SetDefault("sample_interval_ms", DefaultSampleIntervalMS)
	v.SetDefault("notify_interval_ms", DefaultNotifyIntervalMS)
	v.SetDefault("min_range_mm", telemetry.DefaultMinRangeMM)
	v.SetDefault("max_range_mm", telemetry.DefaultMaxRangeMM)

	m := watch.DefaultMappingConfig()
	v.SetDefault("mapping.invert", m.Invert)
	v.SetDefault("mapping.min_range_mm", int(m.MinRangeMM))
	v.SetDefault("mapping.max_range_mm", int(m.MaxRangeMM))
	v.SetDefault("mapping.min_intensity", m.MinIntensity)
	v.SetDefault("mapping.max_intensity", m.MaxIntensity)
	v.SetDefault("mapping.deadzone_mm", int(m.DeadzoneMM))
	v.SetDefault("mapping.smoothing", m.Smoothing)
}

func watchFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("rangewatch", pflag.ContinueOnError)
	fs.String("config", "", "Path to configuration file")
	fs.String("name", DefaultDeviceName, "Local name of the peripheral to connect to")
	fs.Int("hci", 0, "HCI device index")
	fs.Int("scan-timeout", DefaultScanTimeout, "Scan timeout in seconds")
	fs.Int("reconnect-delay", DefaultReconnectDelay, "Delay before reconnecting in seconds")
	fs.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")
	fs.Bool("push-config", false, "Write the telemetry config after connecting")
	fs.Int("sample-interval", DefaultSampleIntervalMS, "Sampling interval to push in milliseconds")
	fs.Int("notify-interval", DefaultNotifyIntervalMS, "Notify interval to push in milliseconds")
	fs.Int("min-range", telemetry.DefaultMinRangeMM, "Minimum range to push in millimeters")
	fs.Int("max-range", telemetry.DefaultMaxRangeMM, "Maximum range to push in millimeters")

	m := watch.DefaultMappingConfig()
	fs.Bool("invert", m.Invert, "Map closer readings to higher intensity")
	fs.Int("map-min-range", int(m.MinRangeMM), "Distance mapped to the near end of the intensity range")
	fs.Int("map-max-range", int(m.MaxRangeMM), "Distance mapped to the far end of the intensity range")
	fs.Float64("min-intensity", m.MinIntensity, "Lowest output intensity, 0 to 1")
	fs.Float64("max-intensity", m.MaxIntensity, "Highest output intensity, 0 to 1")
	fs.Int("deadzone", int(m.DeadzoneMM), "Distances beyond this map to zero, 0 disables")
	fs.Float64("smoothing", m.Smoothing, "Weight of the previous intensity, 0 disables smoothing")

	return fs
}

// LoadWatch reads the rangewatch configuration
func LoadWatch(opts ...Option) (*WatchConfig, error) {
	v, err := newViper(source{
		defaults:    setWatchDefaults,
		flags:       watchFlagSet(),
		keys:        watchFlags,
		envPrefix:   DefaultWatchEnvPrefix,
		defaultPath: DefaultWatchConfigPath,
	}, opts...)
	if err != nil {
		return nil, err
	}

	cfg := &WatchConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New().Wrap(errors.ErrReadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *WatchConfig) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.DeviceName == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "device name must not be empty")
	}
	if c.ScanTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.ScanTimeout)
	}
	if c.ReconnectDelay < 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.ReconnectDelay)
	}
	if c.PushConfig {
		if err := c.Telemetry().Validate(); err != nil {
			return errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}
	if err := c.MappingConfig().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}

// Telemetry returns the record pushed when PushConfig is set
func (c *WatchConfig) Telemetry() telemetry.Config {
	return telemetry.Config{
		SampleIntervalMS: clampU16(c.SampleIntervalMS),
		NotifyIntervalMS: clampU16(c.NotifyIntervalMS),
		MinRangeMM:       clampU16(c.MinRangeMM),
		MaxRangeMM:       clampU16(c.MaxRangeMM),
	}
}

// MappingConfig returns the distance to intensity mapping
func (c *WatchConfig) MappingConfig() watch.MappingConfig {
	return watch.MappingConfig{
		Invert:       c.Mapping.Invert,
		MinRangeMM:   clampU16(c.Mapping.MinRangeMM),
		MaxRangeMM:   clampU16(c.Mapping.MaxRangeMM),
		MinIntensity: c.Mapping.MinIntensity,
		MaxIntensity: c.Mapping.MaxIntensity,
		DeadzoneMM:   clampU16(c.Mapping.DeadzoneMM),
		Smoothing:    c.Mapping.Smoothing,
	}
}

func (c *WatchConfig) ScanTimeoutDuration() time.Duration {
	return time.Duration(c.ScanTimeout) * time.Second
}

func (c *WatchConfig) ReconnectDelayDuration() time.Duration {
	return time.Duration(c.ReconnectDelay) * time.Second
}

func clampU16(v int) uint16 {
	return uint16(min(max(v, 0), 0xFFFF))
}
