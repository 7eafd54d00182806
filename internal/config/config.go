package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/gatt"
	"codeberg.org/mutker/rangefinder/internal/metrics"
	"codeberg.org/mutker/rangefinder/internal/sensor"
	"codeberg.org/mutker/rangefinder/internal/telemetry"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigPath = "/etc/rangefinder.toml"
	DefaultEnvPrefix  = "RANGEFINDER"
	DefaultLogLevel   = "info"

	DefaultSampleIntervalMS = 100
	DefaultNotifyIntervalMS = 100
	DefaultBatteryInterval  = 60
	DefaultNotifyTimeoutMS  = 50
	DefaultDeviceName       = "Rangefinder"
	DefaultSensor           = "iio"
	DefaultDistancePath     = "/sys/bus/iio/devices/iio:device0"
	DefaultBatterySource    = "power_supply"
	DefaultBatteryPath      = "/sys/class/power_supply/battery"
	DefaultADCDivider       = 2
	DefaultManufacturer     = "Rangefinder"
	DefaultModel            = "RF-1"
)

// Config is the peripheral daemon configuration
type Config struct {
	SampleIntervalMS int    `mapstructure:"sample_interval_ms"`
	NotifyIntervalMS int    `mapstructure:"notify_interval_ms"`
	BatteryInterval  int    `mapstructure:"battery_interval"`
	NotifyTimeoutMS  int    `mapstructure:"notify_timeout_ms"`
	DeviceName       string `mapstructure:"device_name"`
	HCIDevice        int    `mapstructure:"hci_device"`
	Manufacturer     string `mapstructure:"manufacturer"`
	Model            string `mapstructure:"model"`
	Sensor           string `mapstructure:"sensor"`
	DistancePath     string `mapstructure:"distance_path"`
	BatterySource    string `mapstructure:"battery_source"`
	BatteryPath      string `mapstructure:"battery_path"`
	ADCChannel       int    `mapstructure:"adc_channel"`
	ADCDivider       int    `mapstructure:"adc_divider"`
	Metrics          bool   `mapstructure:"metrics"`
	MetricsDB        string `mapstructure:"metrics_db"`
	LogLevel         string `mapstructure:"log_level"`
}

// flag name -> config key
var daemonFlags = map[string]string{
	"sample-interval":  "sample_interval_ms",
	"notify-interval":  "notify_interval_ms",
	"battery-interval": "battery_interval",
	"notify-timeout":   "notify_timeout_ms",
	"name":             "device_name",
	"hci":              "hci_device",
	"sensor":           "sensor",
	"distance-path":    "distance_path",
	"battery-source":   "battery_source",
	"battery-path":     "battery_path",
	"adc-channel":      "adc_channel",
	"adc-divider":      "adc_divider",
	"metrics":          "metrics",
	"metrics-db":       "metrics_db",
	"log-level":        "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sample_interval_ms", DefaultSampleIntervalMS)
	v.SetDefault("notify_interval_ms", DefaultNotifyIntervalMS)
	v.SetDefault("battery_interval", DefaultBatteryInterval)
	v.SetDefault("notify_timeout_ms", DefaultNotifyTimeoutMS)
	v.SetDefault("device_name", DefaultDeviceName)
	v.SetDefault("hci_device", 0)
	v.SetDefault("manufacturer", DefaultManufacturer)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("sensor", DefaultSensor)
	v.SetDefault("distance_path", DefaultDistancePath)
	v.SetDefault("battery_source", DefaultBatterySource)
	v.SetDefault("battery_path", DefaultBatteryPath)
	v.SetDefault("adc_channel", 0)
	v.SetDefault("adc_divider", DefaultADCDivider)
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_db", metrics.DefaultConfig().DBPath)
	v.SetDefault("log_level", DefaultLogLevel)
}

func daemonFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("rangefinder", pflag.ContinueOnError)
	fs.String("config", "", "Path to configuration file")
	fs.Int("sample-interval", DefaultSampleIntervalMS, "Range sampling interval in milliseconds")
	fs.Int("notify-interval", DefaultNotifyIntervalMS, "Notification interval in milliseconds")
	fs.Int("battery-interval", DefaultBatteryInterval, "Battery sampling interval in seconds")
	fs.Int("notify-timeout", DefaultNotifyTimeoutMS, "Upper bound for a single notification in milliseconds")
	fs.String("name", DefaultDeviceName, "Advertised device name")
	fs.Int("hci", 0, "HCI device index")
	fs.String("sensor", DefaultSensor, "Ranging sensor: iio or sim")
	fs.String("distance-path", DefaultDistancePath, "IIO device directory of the ranging sensor")
	fs.String("battery-source", DefaultBatterySource, "Battery source: power_supply, adc or sim")
	fs.String("battery-path", DefaultBatteryPath, "Battery device directory")
	fs.Int("adc-channel", 0, "IIO ADC voltage channel")
	fs.Int("adc-divider", DefaultADCDivider, "Battery resistor divider ratio")
	fs.Bool("metrics", false, "Record samples to the metrics database")
	fs.String("metrics-db", metrics.DefaultConfig().DBPath, "Path to the metrics database")
	fs.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")

	return fs
}

// Load reads the daemon configuration from defaults, the config file, the
// environment and the command line, in increasing precedence
func Load(opts ...Option) (*Config, error) {
	v, err := newViper(source{
		defaults:    setDefaults,
		flags:       daemonFlagSet(),
		keys:        daemonFlags,
		envPrefix:   DefaultEnvPrefix,
		defaultPath: DefaultConfigPath,
	}, opts...)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New().Wrap(errors.ErrReadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot start with
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.BatteryInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.BatteryInterval)
	}
	if c.NotifyTimeoutMS <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.NotifyTimeoutMS)
	}
	if c.SampleIntervalMS < 0 || c.SampleIntervalMS > 0xFFFF ||
		c.NotifyIntervalMS < 0 || c.NotifyIntervalMS > 0xFFFF {
		return errFactory.WithMessage(errors.ErrInvalidInterval, "interval does not fit the wire format")
	}
	if err := c.Telemetry().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if c.DeviceName == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "device name must not be empty")
	}
	if c.ADCDivider <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.ADCDivider)
	}

	return nil
}

// Telemetry returns the initial telemetry record
func (c *Config) Telemetry() telemetry.Config {
	return telemetry.DefaultConfig(uint16(c.SampleIntervalMS), uint16(c.NotifyIntervalMS))
}

// source describes one configurable program
type source struct {
	defaults    func(*viper.Viper)
	flags       *pflag.FlagSet
	keys        map[string]string
	envPrefix   string
	defaultPath string
}

// BatteryIntervalDuration returns the battery sampling period
func (c *Config) BatteryIntervalDuration() time.Duration {
	return time.Duration(c.BatteryInterval) * time.Second
}

// NotifyTimeout bounds a single range notification
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutMS) * time.Millisecond
}

func (c *Config) GATT() gatt.Config {
	g := gatt.DefaultConfig()
	g.DeviceName = c.DeviceName
	g.HCIDevice = c.HCIDevice
	g.Manufacturer = c.Manufacturer
	g.Model = c.Model

	return g
}

func (c *Config) Sensors() sensor.Config {
	s := sensor.DefaultConfig()
	s.Distance = c.Sensor
	s.DistancePath = c.DistancePath
	s.Battery = c.BatterySource
	s.BatteryPath = c.BatteryPath
	s.ADCChannel = c.ADCChannel
	s.ADCDivider = c.ADCDivider

	return s
}

func (c *Config) MetricsConfig() metrics.Config {
	m := metrics.DefaultConfig()
	m.Enabled = c.Metrics
	m.DBPath = c.MetricsDB

	return m
}

func newViper(src source, opts ...Option) (*viper.Viper, error) {
	errFactory := errors.New()

	o := &options{envPrefix: src.envPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}
	if !o.argsSet {
		o.args = os.Args[1:]
	}

	v := viper.New()
	src.defaults(v)

	fs := src.flags
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	for name, key := range src.keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path, explicit := resolveConfigPath(o, fs, src.defaultPath)
	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if !explicit && os.IsNotExist(err) {
			return v, nil
		}
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return v, nil
}

// resolveConfigPath picks the config file from the option, the --config
// flag, $<PREFIX>_CONFIG and the default path, in that order. Only the
// default path may be missing.
func resolveConfigPath(o *options, fs *pflag.FlagSet, defaultPath string) (string, bool) {
	if o.configPath != "" {
		return o.configPath, true
	}
	if f := fs.Lookup("config"); f != nil && f.Changed {
		return f.Value.String(), true
	}
	if p, ok := os.LookupEnv(o.envPrefix + "_CONFIG"); ok {
		return p, p != ""
	}

	return defaultPath, false
}
