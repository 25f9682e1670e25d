package event

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducer_CloseFlushesAndStopsAccepting(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, TopicOrderEvents, "order-api", 8, discardLogger())

	var mu sync.Mutex
	var got []kafka.Message
	p.writeFn = func(m kafka.Message) {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	}
	p.Start()

	p.OrderPlaced(OrderPlacedPayload{OrderID: 1, UserID: 1})
	p.Close()

	mu.Lock()
	assert.Len(t, got, 1)
	mu.Unlock()

	// Close後の発行はpanicせず捨てられる
	p.OrderStatusChanged(OrderStatusChangedPayload{OrderID: 1, From: "Pending", To: "Paid"})
	mu.Lock()
	assert.Len(t, got, 1)
	mu.Unlock()
}

func TestProducer_PublishRacingClose(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, TopicOrderEvents, "order-api", 4, discardLogger())
	p.writeFn = func(kafka.Message) {}
	p.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.OrderPlaced(OrderPlacedPayload{OrderID: int64(i*100 + j)})
			}
		}(i)
	}

	p.Close()
	wg.Wait()

	// 2回目のCloseも安全
	p.Close()
}
