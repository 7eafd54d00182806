package watch

import (
	"context"
	"time"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/gatt"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"codeberg.org/mutker/rangefinder/internal/telemetry"
	"github.com/go-ble/ble"
)

// Config controls scanning and reconnection
type Config struct {
	DeviceName     string
	ScanTimeout    time.Duration
	ReconnectDelay time.Duration

	// Push, when set, is written to the config characteristic after every
	// connect
	Push *telemetry.Config

	Mapping MappingConfig
}

// Reading is a single distance notification and the intensity it maps to
type Reading struct {
	DistanceMM uint16
	Intensity  float64
	At         time.Time
}

// Client connects to a rangefinder peripheral, subscribes to distance
// notifications and reconnects when the link drops
type Client struct {
	cfg     Config
	connect connectFunc
	mapper  *Mapper
	onRead  func(Reading)
	logger  logger.Logger
}

// NewClient returns a client using the default go-ble device, which must be
// set with ble.SetDefaultDevice before Run
func NewClient(cfg Config, onRead func(Reading), log logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		connect: func(ctx context.Context, filter ble.AdvFilter) (session, error) {
			cl, err := ble.Connect(ctx, filter)
			if err != nil {
				return nil, err
			}
			return cl, nil
		},
		mapper: NewMapper(cfg.Mapping),
		onRead: onRead,
		logger: log,
	}
}

// Run keeps a session alive until ctx is done
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}

		var appErr errors.Error
		if errors.As(err, &appErr) {
			c.logger.Warn().
				Str("error_code", string(appErr.Code())).
				Err(err).
				Dur("retry_in", c.cfg.ReconnectDelay).
				Msg("Session ended")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	c.logger.Info().Str("name", c.cfg.DeviceName).Msg("Scanning")

	scanCtx, cancel := context.WithTimeout(ctx, c.cfg.ScanTimeout)
	s, err := c.connect(scanCtx, matchName(c.cfg.DeviceName))
	cancel()
	if err != nil {
		return errors.New().Wrap(ErrConnect, err)
	}

	return c.serve(ctx, s)
}

// serve subscribes to range notifications on an established session and
// blocks until the session ends
func (c *Client) serve(ctx context.Context, s session) error {
	errFactory := errors.New()

	profile, err := s.DiscoverProfile(true)
	if err != nil {
		_ = s.CancelConnection()
		return errFactory.Wrap(ErrDiscover, err)
	}

	rangeChar := profile.FindCharacteristic(ble.NewCharacteristic(gatt.RangeCharUUID))
	if rangeChar == nil {
		_ = s.CancelConnection()
		return errFactory.WithData(ErrMissingCharacteristic, gatt.RangeCharUUID.String())
	}

	if c.cfg.Push != nil {
		if err := c.pushConfig(s, profile, *c.cfg.Push); err != nil {
			_ = s.CancelConnection()
			return err
		}
	}

	if err := s.Subscribe(rangeChar, false, c.handleNotification); err != nil {
		_ = s.CancelConnection()
		return errFactory.Wrap(ErrSubscribe, err)
	}
	c.logger.Info().Msg("Subscribed to range notifications")

	select {
	case <-ctx.Done():
		_ = s.CancelConnection()
		return nil
	case <-s.Disconnected():
		return errFactory.New(ErrDisconnected)
	}
}

func (c *Client) pushConfig(s session, profile *ble.Profile, cfg telemetry.Config) error {
	errFactory := errors.New()

	char := profile.FindCharacteristic(ble.NewCharacteristic(gatt.ConfigCharUUID))
	if char == nil {
		return errFactory.WithData(ErrMissingCharacteristic, gatt.ConfigCharUUID.String())
	}

	payload, err := cfg.MarshalBinary()
	if err != nil {
		return errFactory.Wrap(ErrPushConfig, err)
	}
	if err := s.WriteCharacteristic(char, payload, false); err != nil {
		return errFactory.Wrap(ErrPushConfig, err)
	}

	b, err := s.ReadCharacteristic(char)
	if err != nil {
		return errFactory.Wrap(ErrPushConfig, err)
	}
	var active telemetry.Config
	if err := active.UnmarshalBinary(b); err != nil {
		return errFactory.Wrap(ErrPushConfig, err)
	}

	c.logger.Info().
		Uint16("sample_interval_ms", active.SampleIntervalMS).
		Uint16("notify_interval_ms", active.NotifyIntervalMS).
		Uint16("min_range_mm", active.MinRangeMM).
		Uint16("max_range_mm", active.MaxRangeMM).
		Msg("Telemetry config applied")

	return nil
}

func (c *Client) handleNotification(data []byte) {
	mm, err := telemetry.DecodeDistance(data)
	if err != nil {
		c.logger.Debug().Err(err).Int("length", len(data)).Msg("Ignoring malformed notification")
		return
	}

	r := Reading{DistanceMM: mm, Intensity: c.mapper.Map(mm), At: time.Now()}
	if c.onRead != nil {
		c.onRead(r)
	}
}

func matchName(name string) ble.AdvFilter {
	return func(a ble.Advertisement) bool {
		return a.LocalName() == name
	}
}
