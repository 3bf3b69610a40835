// Package bus implements the multi-producer, single-consumer command channel
// between the monitors and the presentation consumer.
package bus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// DefaultCapacity bounds the queue. The consumer drains every few tens of
// milliseconds, so the bound is only reachable if the consumer stalls; when
// it is hit the oldest command is dropped so fresh mood state keeps flowing.
const DefaultCapacity = 1024

// Bus is a FIFO command queue safe for concurrent publish from multiple
// monitor loops. Ordering is preserved per producer; no cross-producer
// interleaving order is guaranteed.
type Bus struct {
	mu       sync.Mutex
	queue    []domain.Command
	capacity int
	logger   *zap.Logger
}

// New creates a bus with the default capacity.
func New(logger *zap.Logger) *Bus {
	return NewWithCapacity(DefaultCapacity, logger)
}

// NewWithCapacity creates a bus with a custom capacity (for tests).
func NewWithCapacity(capacity int, logger *zap.Logger) *Bus {
	return &Bus{
		queue:    make([]domain.Command, 0, 64),
		capacity: capacity,
		logger:   logger,
	}
}

// Publish enqueues a command without blocking. If the queue is full the
// oldest command is dropped and a warning is logged.
func (b *Bus) Publish(cmd domain.Command) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) >= b.capacity {
		dropped := b.queue[0]
		b.queue = b.queue[1:]
		b.logger.Warn("command bus full, dropping oldest command",
			zap.String("dropped_type", string(dropped.Type)),
			zap.Int("capacity", b.capacity))
	}
	b.queue = append(b.queue, cmd)
}

// Drain removes and returns all pending commands in FIFO order.
// Returns nil when the queue is empty.
func (b *Bus) Drain() []domain.Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return nil
	}
	out := b.queue
	b.queue = make([]domain.Command, 0, 64)
	return out
}

// Len returns the number of pending commands.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Ensure Bus implements domain.CommandBus.
var _ domain.CommandBus = (*Bus)(nil)
