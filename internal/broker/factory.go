package broker

import (
	"fmt"

	"pcaplink/internal/config"
	"pcaplink/internal/logger"
)

const TypeKafka = "kafka"

// Enabled reports whether a broker is configured at all.
func Enabled(cfg config.BrokerConfig) bool {
	return cfg.Type != ""
}

func NewProducer(cfg config.BrokerConfig, log logger.Logger) (Producer, error) {
	switch cfg.Type {
	case TypeKafka:
		return NewKafkaProducer(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

func NewConsumer(cfg config.BrokerConfig, log logger.Logger) (Consumer, error) {
	switch cfg.Type {
	case TypeKafka:
		return NewKafkaConsumer(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}
