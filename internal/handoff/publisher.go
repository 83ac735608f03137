package handoff

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/career-locator/internal/core/observability"
)

var ErrQueueFull = errors.New("handoff queue full")

// Publisher ships sessions somewhere. Publish must not block.
type Publisher interface {
	Publish(s Session)
	Close() error
}

// KafkaPublisher queues sessions and feeds them to a sarama async producer,
// keyed by company id so one company's hand-offs stay ordered.
type KafkaPublisher struct {
	topic   string
	events  chan Session
	prod    sarama.AsyncProducer
	logger  *slog.Logger
	stopped chan struct{}
	errDone chan struct{}
}

func NewKafkaPublisher(brokers []string, topic string, queueSize int, logger *slog.Logger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("handoff: create async producer: %w", err)
	}
	return newKafkaPublisher(prod, topic, queueSize, logger), nil
}

func newKafkaPublisher(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *KafkaPublisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &KafkaPublisher{
		topic:   topic,
		events:  make(chan Session, queueSize),
		prod:    prod,
		logger:  logger,
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for s := range p.events {
			b, err := json.Marshal(s)
			if err != nil {
				p.logger.Error("handoff marshal failed", "event_id", s.EventID, "err", err)
				observability.IncHandoff("publish", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(s.CompanyID),
				Value: sarama.ByteEncoder(b),
				Headers: []sarama.RecordHeader{
					{Key: []byte("event_id"), Value: []byte(s.EventID)},
				},
			}
			observability.IncHandoff("publish", nil)
		}
	}()

	go func() {
		defer close(p.errDone)
		for err := range p.prod.Errors() {
			if err != nil {
				p.logger.Error("handoff producer error", "topic", p.topic, "err", err.Err)
				observability.IncHandoff("deliver", err.Err)
			}
		}
	}()

	return p
}

func (p *KafkaPublisher) Publish(s Session) {
	select {
	case p.events <- s:
	default:
		p.logger.Warn("handoff queue full, dropping event", "event_id", s.EventID)
		observability.IncHandoff("publish", ErrQueueFull)
	}
}

func (p *KafkaPublisher) Close() error {
	close(p.events)
	<-p.stopped

	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("handoff: close producer: %w", err)
	}
	<-p.errDone
	return nil
}

// SplitBrokers parses a comma separated broker list.
func SplitBrokers(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
