package bus

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// TestBus_FIFO verifies single-producer ordering
func TestBus_FIFO(t *testing.T) {
	b := New(zap.NewNop())

	for i := 0; i < 5; i++ {
		b.Publish(domain.Command{Type: domain.CommandAngerDelta, Delta: i})
	}

	cmds := b.Drain()
	require.Len(t, cmds, 5)
	for i, cmd := range cmds {
		assert.Equal(t, i, cmd.Delta)
	}

	assert.Nil(t, b.Drain(), "drained bus should return nil")
	assert.Equal(t, 0, b.Len())
}

// TestBus_PerProducerOrder verifies FIFO per producer under concurrent publish
func TestBus_PerProducerOrder(t *testing.T) {
	b := New(zap.NewNop())

	const producers = 4
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				b.Publish(domain.Command{
					Type:  domain.CommandShowBubble,
					Text:  fmt.Sprintf("p%d", p),
					Delta: i,
				})
			}
		}(p)
	}
	wg.Wait()

	cmds := b.Drain()
	require.Len(t, cmds, producers*perProducer)

	// Within each producer's tag, sequence numbers must be increasing.
	lastSeen := map[string]int{}
	for _, cmd := range cmds {
		if last, ok := lastSeen[cmd.Text]; ok {
			assert.Greater(t, cmd.Delta, last, "producer %s reordered", cmd.Text)
		}
		lastSeen[cmd.Text] = cmd.Delta
	}
}

// TestBus_DropOldestWhenFull verifies the bounded overflow policy
func TestBus_DropOldestWhenFull(t *testing.T) {
	b := NewWithCapacity(3, zap.NewNop())

	for i := 0; i < 5; i++ {
		b.Publish(domain.Command{Type: domain.CommandAngerDelta, Delta: i})
	}

	cmds := b.Drain()
	require.Len(t, cmds, 3)
	assert.Equal(t, 2, cmds[0].Delta, "oldest commands should have been dropped")
	assert.Equal(t, 4, cmds[2].Delta)
}
