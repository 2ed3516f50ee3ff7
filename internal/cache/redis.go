// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list (queue) name for round action records.
const DefaultQueueName = "tienlen_actions"

// ActionRecord is one entry in a round's history, consumed by the historian.
type ActionRecord struct {
	RoundID       uuid.UUID              `json:"round_id"`
	RoomID        string                 `json:"room_id"`
	RoundNumber   int                    `json:"round_number"`
	ActionIndex   int                    `json:"action_index"`
	Seat          int                    `json:"seat"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Action types written to the queue.
const (
	ActionDeal      = "deal"
	ActionPlay      = "play"
	ActionPass      = "pass"
	ActionClear     = "standing_cleared"
	ActionRoundOver = "round_over"
	ActionAbort     = "round_aborted"
)

// Pusher is the slice of the Redis client the publisher needs.
type Pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher pushes action records to a Redis list from a single background
// goroutine. Publish never blocks the caller.
type Publisher struct {
	client Pusher
	queue  string
	logger *logrus.Entry

	records chan ActionRecord
	quit    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPublisher starts the background pusher.
func NewPublisher(client Pusher, queue string, buffer int, logger *logrus.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		client:  client,
		queue:   queue,
		logger:  logger.WithField("queue", queue),
		records: make(chan ActionRecord, buffer),
		quit:    make(chan struct{}),
	}
	p.wg.Add(1)
	go p.loop()
	return p
}

// Publish enqueues rec. Records are dropped when the buffer is full or the
// publisher is closed.
func (p *Publisher) Publish(rec ActionRecord) {
	select {
	case <-p.quit:
		return
	default:
	}
	select {
	case p.records <- rec:
	default:
		p.logger.Warnf("history buffer full, dropped %s for room %s", rec.ActionType, rec.RoomID)
	}
}

// Close stops the pusher after flushing whatever is already buffered.
func (p *Publisher) Close() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	for {
		select {
		case rec := <-p.records:
			p.push(rec)
		case <-p.quit:
			for {
				select {
				case rec := <-p.records:
					p.push(rec)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) push(rec ActionRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		p.logger.Errorf("failed to marshal ActionRecord: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.client.RPush(ctx, p.queue, data).Err(); err != nil {
		p.logger.Warnf("failed to RPush to Redis list '%s': %v", p.queue, err)
	}
}
