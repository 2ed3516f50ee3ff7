// internal/historian/historian.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tienlen/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Source is the slice of the Redis client the historian reads from.
type Source interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Store persists batches of action records.
type Store interface {
	WriteBatch(ctx context.Context, recs []cache.ActionRecord) error
	MarkAbandoned(ctx context.Context, roundID uuid.UUID) error
}

// Config tunes batching and inactivity detection.
type Config struct {
	Queue      string
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a round may go without actions before it is
	// marked abandoned.
	Inactivity time.Duration
	// SweepEvery is how often rounds are checked for inactivity.
	SweepEvery time.Duration
}

// Service drains the action queue into the store in batches.
type Service struct {
	src    Source
	store  Store
	cfg    Config
	logger *logrus.Entry

	batch        []cache.ActionRecord
	lastFlush    time.Time
	lastSweep    time.Time
	lastActivity map[uuid.UUID]time.Time
	now          func() time.Time
}

// New builds a historian. Zero config fields take defaults.
func New(src Source, store Store, cfg Config, logger *logrus.Logger) *Service {
	if cfg.Queue == "" {
		cfg.Queue = cache.DefaultQueueName
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = 500 * time.Millisecond
	}
	if cfg.Inactivity <= 0 {
		cfg.Inactivity = 10 * time.Minute
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = time.Minute
	}
	return &Service{
		src:          src,
		store:        store,
		cfg:          cfg,
		logger:       logger.WithField("queue", cfg.Queue),
		batch:        make([]cache.ActionRecord, 0, cfg.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
		now:          time.Now,
	}
}

// Run pops records until ctx is cancelled, then flushes what it holds.
func (s *Service) Run(ctx context.Context) error {
	s.lastFlush = s.now()
	s.lastSweep = s.now()
	s.logger.Info("historian started")
	defer s.logger.Info("historian stopped")

	for {
		if ctx.Err() != nil {
			s.flush(context.Background())
			return nil
		}

		res, err := s.src.BLPop(ctx, s.cfg.FlushDelay, s.cfg.Queue).Result()
		switch {
		case err == nil && len(res) == 2:
			// res[0] is the queue name and res[1] the payload.
			s.accept(res[1])
		case err == nil, errors.Is(err, redis.Nil):
		case ctx.Err() != nil:
			continue
		default:
			s.logger.Errorf("BLPop: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.FlushDelay):
			}
		}

		if len(s.batch) >= s.cfg.BatchSize || s.now().Sub(s.lastFlush) >= s.cfg.FlushDelay {
			s.flush(ctx)
		}
		if s.now().Sub(s.lastSweep) >= s.cfg.SweepEvery {
			s.sweep(ctx)
		}
	}
}

func (s *Service) accept(payload string) {
	var rec cache.ActionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		s.logger.Warnf("invalid action record: %v", err)
		return
	}
	switch rec.ActionType {
	case cache.ActionRoundOver, cache.ActionAbort:
		delete(s.lastActivity, rec.RoundID)
	default:
		s.lastActivity[rec.RoundID] = s.now()
	}
	s.batch = append(s.batch, rec)
}

// flush writes the current batch in one transaction. A failed batch is
// logged and dropped.
func (s *Service) flush(ctx context.Context) {
	s.lastFlush = s.now()
	if len(s.batch) == 0 {
		return
	}
	n := len(s.batch)
	err := s.store.WriteBatch(ctx, s.batch)
	s.batch = s.batch[:0]
	if err != nil {
		s.logger.Errorf("flush of %d actions failed: %v", n, err)
		return
	}
	s.logger.Debugf("flushed %d actions", n)
}

// sweep marks rounds that went quiet as abandoned.
func (s *Service) sweep(ctx context.Context) {
	s.lastSweep = s.now()
	for roundID, last := range s.lastActivity {
		if s.now().Sub(last) <= s.cfg.Inactivity {
			continue
		}
		if err := s.store.MarkAbandoned(ctx, roundID); err != nil {
			s.logger.Warnf("failed to mark round %v abandoned: %v", roundID, err)
			continue
		}
		delete(s.lastActivity, roundID)
		s.logger.Infof("marked round %v abandoned due to inactivity", roundID)
	}
}
