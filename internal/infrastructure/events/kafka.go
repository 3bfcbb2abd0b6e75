// Package events publica los movimientos confirmados en Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
)

var _ inventory.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher escribe un mensaje por movimiento. La clave es el StockItem, así los
// movimientos de un mismo item caen en la misma partición y conservan su orden.
type KafkaPublisher struct {
	w *kafka.Writer
}

// NewKafkaPublisher construye el writer (síncrono, confirma con el líder de la partición).
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

// PublishMovements publica el lote completo de una transacción.
func (p *KafkaPublisher) PublishMovements(ctx context.Context, events []dto.MovementEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs, err := MovementMessages(events)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write %s: %w", p.w.Topic, err)
	}
	return nil
}

// Close vacía lo pendiente y cierra las conexiones.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// MovementMessages arma los mensajes: clave = stock item, valor = evento JSON, cabecera "type".
func MovementMessages(events []dto.MovementEvent) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("serializar evento %s: %w", ev.MovementID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(ev.StockItemID),
			Value:   b,
			Headers: []kafka.Header{{Key: "type", Value: []byte(ev.Type)}},
			Time:    ev.OccurredAt,
		})
	}
	return msgs, nil
}

// ParseBrokers separa KAFKA_BROKERS ("host1:9092,host2:9092"); vacío = sin broker.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
