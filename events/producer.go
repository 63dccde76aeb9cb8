package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"stockbot/types"

	"github.com/IBM/sarama"
)

// CatalystProducer publishes every recorded catalyst as JSON, keyed by ticker.
type CatalystProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewCatalystProducer connects a synchronous producer to brokers.
func NewCatalystProducer(brokers []string, topic string) (*CatalystProducer, error) {
	cfg := newSaramaConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewCatalystProducerWithClient(p, topic), nil
}

// NewCatalystProducerWithClient wraps an existing producer.
func NewCatalystProducerWithClient(p sarama.SyncProducer, topic string) *CatalystProducer {
	return &CatalystProducer{producer: p, topic: topic}
}

func (p *CatalystProducer) PublishCatalyst(_ context.Context, c types.Catalyst) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal catalyst: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(c.Ticker),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("catalyst-id"), Value: []byte(strconv.FormatInt(c.ID, 10))},
			{Key: []byte("catalyst-type"), Value: []byte(c.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish catalyst %d: %w", c.ID, err)
	}
	return nil
}

func (p *CatalystProducer) Close() error {
	return p.producer.Close()
}
