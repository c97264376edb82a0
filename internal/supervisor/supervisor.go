package supervisor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	ErrIdle         = errors.New("no frame received within idle timeout")
	ErrStreamClosed = errors.New("stream closed by server")
)

var restarts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gmocoin", Subsystem: "supervisor", Name: "restarts_total",
		Help: "Subscription restarts by stream and reason",
	},
	[]string{"stream", "reason"},
)

// Config tunes the restart backoff and the idle watchdog. Zero values take defaults;
// MaxElapsedTime zero retries forever and IdleTimeout zero disables the watchdog.
type Config struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
}

func (c *Config) applyDefaults() {
	if c.InitialInterval <= 0 {
		c.InitialInterval = time.Second
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = time.Minute
	}
	if c.Multiplier < 1 {
		c.Multiplier = 2
	}
}

// Supervisor keeps one subscription alive. GMO Coin sends no heartbeat on the public
// channels, so liveness is inferred from frames arriving within IdleTimeout.
type Supervisor struct {
	name string
	cfg  Config
	log  *zap.Logger
	live atomic.Bool
}

func New(name string, cfg Config, log *zap.Logger) *Supervisor {
	cfg.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Supervisor{name: name, cfg: cfg, log: log.With(zap.String("stream", name))}
}

func (s *Supervisor) Name() string {
	return s.name
}

// Live reports whether the current subscription has delivered at least one record.
func (s *Supervisor) Live() bool {
	return s.live.Load()
}

func (s *Supervisor) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.InitialInterval
	bo.MaxInterval = s.cfg.MaxInterval
	bo.Multiplier = s.cfg.Multiplier
	bo.MaxElapsedTime = s.cfg.MaxElapsedTime
	bo.Reset()
	return bo
}

// Run subscribes, hands every record to handle and restarts the subscription whenever it ends
// while ctx is still live. The backoff resets after a subscription that delivered records.
// Run returns nil when ctx is cancelled and an error once MaxElapsedTime is exhausted.
func Run[T any](ctx context.Context, s *Supervisor, subscribe func(context.Context) iter.Seq2[T, error], handle func(context.Context, T)) error {
	bo := s.newBackOff()

	for {
		received, err := runOnce(ctx, s, subscribe, handle)
		s.live.Store(false)
		if ctx.Err() != nil {
			return nil
		}

		if received > 0 {
			bo.Reset()
		}
		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			return fmt.Errorf("supervisor %s: giving up: %w", s.name, err)
		}

		restarts.WithLabelValues(s.name, reason(err)).Inc()
		s.log.Warn("Subscription ended, restarting",
			zap.Error(err),
			zap.Int("received", received),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func runOnce[T any](ctx context.Context, s *Supervisor, subscribe func(context.Context) iter.Seq2[T, error], handle func(context.Context, T)) (int, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var idle atomic.Bool
	if s.cfg.IdleTimeout > 0 {
		watchdog := time.AfterFunc(s.cfg.IdleTimeout, func() {
			idle.Store(true)
			cancel()
		})
		defer watchdog.Stop()
		handle = resetting(watchdog, s.cfg.IdleTimeout, handle)
	}

	received := 0
	for record, err := range subscribe(streamCtx) {
		if err != nil {
			return received, err
		}
		if received == 0 {
			s.live.Store(true)
		}
		received++
		handle(ctx, record)
	}

	if idle.Load() {
		return received, ErrIdle
	}
	return received, ErrStreamClosed
}

func resetting[T any](watchdog *time.Timer, d time.Duration, handle func(context.Context, T)) func(context.Context, T) {
	return func(ctx context.Context, record T) {
		watchdog.Reset(d)
		handle(ctx, record)
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrIdle):
		return "idle"
	case errors.Is(err, ErrStreamClosed):
		return "closed"
	default:
		return "error"
	}
}
