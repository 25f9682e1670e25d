package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Publisher は注文イベントの発行口。nilでも安全（発行しない）。
type Publisher interface {
	OrderPlaced(p OrderPlacedPayload)
	OrderStatusChanged(p OrderStatusChangedPayload)
}

type Producer struct {
	w       *kafka.Writer
	name    string
	log     *slog.Logger
	inbox   chan kafka.Message
	writeFn func(kafka.Message)

	mu      sync.RWMutex
	closing bool
	once    sync.Once
	done    chan struct{}
}

func NewProducer(brokers []string, topic string, name string, buf int, log *slog.Logger) *Producer {
	p := &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		name:  name,
		log:   log,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
	p.writeFn = p.write
	return p
}

// Start はinboxを書き出すgoroutineを起こす。
func (p *Producer) Start() {
	go func() {
		for m := range p.inbox {
			p.writeFn(m)
		}
		_ = p.w.Close()
		close(p.done)
	}()
}

// Close は新規の発行を止め、残りをflushし終えるまで待つ。
// inboxを閉じるのはここだけ。publish側と競合しない。
func (p *Producer) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closing = true
		p.mu.Unlock()
		close(p.inbox)
	})
	<-p.done
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error("kafka write failed", "topic", p.w.Topic, "err", err)
	}
}

func (p *Producer) OrderPlaced(payload OrderPlacedPayload) {
	p.publish(EventOrderPlaced, payload.OrderID, payload)
}

func (p *Producer) OrderStatusChanged(payload OrderStatusChangedPayload) {
	p.publish(EventOrderStatusChanged, payload.OrderID, payload)
}

func (p *Producer) publish(eventType string, orderID int64, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("event marshal failed", "type", eventType, "err", err)
		return
	}
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     p.name,
		Payload:      raw,
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.log.Error("envelope marshal failed", "type", eventType, "err", err)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closing {
		return
	}

	// keyはorder_id。同じ注文のイベントは同じpartitionに乗る。
	select {
	case p.inbox <- kafka.Message{
		Key:   []byte(strconv.FormatInt(orderID, 10)),
		Value: value,
		Time:  time.Now(),
	}:
	default:
		p.log.Warn("event inbox full, dropping", "type", eventType, "order_id", orderID)
	}
}
