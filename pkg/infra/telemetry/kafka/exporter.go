package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/telemetry"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
)

const (
	ExporterName = "kafka"
)

type Config struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Topic string `mapstructure:"topic"`
}

// Exporter publishes verdict events keyed by content fingerprint.
type Exporter struct {
	cfg      Config
	producer *kafka.Producer
}

func NewKafkaExporter() *Exporter {
	return &Exporter{}
}

func (p *Exporter) Name() string {
	return ExporterName
}

func decodeConfig(settings map[string]interface{}) (Config, error) {
	var conf Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &conf,
	})
	if err != nil {
		return conf, err
	}
	if err := decoder.Decode(settings); err != nil {
		return conf, fmt.Errorf("invalid kafka config: %w", err)
	}
	return conf, nil
}

func (p *Exporter) ValidateConfig(settings map[string]interface{}) error {
	conf, err := decodeConfig(settings)
	if err != nil {
		return err
	}
	if conf.Host == "" {
		return errors.New("kafka host is required")
	}
	if conf.Port == "" {
		return errors.New("kafka port is required")
	}
	if conf.Topic == "" {
		return errors.New("kafka topic is required")
	}
	return nil
}

func (p *Exporter) WithSettings(settings map[string]interface{}) (telemetry.Exporter, error) {
	conf, err := decodeConfig(settings)
	if err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": fmt.Sprintf("%s:%s", conf.Host, conf.Port),
		"linger.ms":         50,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &Exporter{
		cfg:      conf,
		producer: producer,
	}, nil
}

func (p *Exporter) Handle(ctx context.Context, evt *telemetry.VerdictEvent) error {
	if p.producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	deliveryChan := make(chan kafka.Event, 1)

	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.cfg.Topic, Partition: kafka.PartitionAny},
		Key:            []byte(evt.Fingerprint),
		Value:          data,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("delivery not confirmed: %w", ctx.Err())
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		return nil
	}
}

func (p *Exporter) Close() {
	if p.producer != nil {
		p.producer.Flush(5000)
		p.producer.Close()
	}
}
