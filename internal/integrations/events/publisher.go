package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

const writeTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher пишет события записей в Kafka с ключом по ID записи
type Publisher struct {
	writer messageWriter
	topic  string
	log    Logger
	now    func() time.Time
}

// NewPublisher создает publisher для указанных брокеров и топика
func NewPublisher(brokers []string, topic string, log Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, topic, log)
}

func newPublisher(w messageWriter, topic string, log Logger) *Publisher {
	return &Publisher{
		writer: w,
		topic:  topic,
		log:    log,
		now:    time.Now,
	}
}

// PublishAppointment отправляет одно событие жизненного цикла
func (p *Publisher) PublishAppointment(ctx context.Context, eventType EventType, actorID string, appt *domain.Appointment) error {
	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: p.now().UTC(),
		ActorID:    actorID,
		Data:       payloadFromDomain(appt),
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	msg := kafka.Message{
		Key:   []byte(appt.ID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(env.EventID)},
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	msg.Headers = injectTraceHeaders(ctx, msg.Headers)

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("%w: %s id=%s: %v", ErrPublish, eventType, appt.ID, err)
	}

	p.log.Debug("Events: published %s id=%s event_id=%s", eventType, appt.ID, env.EventID)
	return nil
}

// Close дописывает неотправленные сообщения
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)

// Noop отбрасывает события, используется при выключенной Kafka
type Noop struct{}

func (Noop) PublishAppointment(context.Context, EventType, string, *domain.Appointment) error {
	return nil
}

func (Noop) Close() error { return nil }
