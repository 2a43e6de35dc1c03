package broadcaster

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	exitwal "filesig/infra/wal/exit"
)

type Config struct {
	Interval   time.Duration
	MaxRetries uint32
	// RatePerSec caps publishes per second; zero means unlimited.
	RatePerSec float64
	Burst      int
}

type Broadcaster struct {
	outbox    *exitwal.ExitWAL
	publisher Publisher
	cfg       Config
	limiter   *rate.Limiter
	log       *zap.Logger
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(outbox *exitwal.ExitWAL, publisher Publisher, cfg Config, log *zap.Logger) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Broadcaster{
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
		log:       log.Named("broadcaster"),
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run drains the outbox every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("started", zap.Duration("interval", b.cfg.Interval))

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopped")
			return
		case <-ticker.C:
			if _, err := b.ReplayOnce(ctx); err != nil && ctx.Err() == nil {
				b.log.Warn("outbox pass failed", zap.Error(err))
			}
		}
	}
}

// ReplayOnce publishes every pending record once and returns how many
// were acknowledged.
func (b *Broadcaster) ReplayOnce(ctx context.Context) (int, error) {
	var pending []exitwal.ExitRecord
	err := b.outbox.ScanPending(b.cfg.MaxRetries, func(rec exitwal.ExitRecord) error {
		pending = append(pending, rec)
		return nil
	})
	if err != nil {
		return 0, err
	}

	acked := 0
	for _, rec := range pending {
		if err := b.limiter.Wait(ctx); err != nil {
			return acked, err
		}
		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return acked, err
		}

		key := []byte(strconv.FormatUint(rec.Seq, 10))
		if err := b.publisher.Publish(ctx, key, rec.Payload); err != nil {
			b.log.Warn("publish failed",
				zap.Uint64("seq", rec.Seq),
				zap.Uint32("retries", rec.Retries+1),
				zap.Error(err),
			)
			if err := b.outbox.MarkFailed(rec.Seq); err != nil {
				return acked, err
			}
			continue
		}

		if err := b.outbox.MarkAcked(rec.Seq); err != nil {
			return acked, err
		}
		acked++
	}
	return acked, nil
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.publisher.Close()
}
