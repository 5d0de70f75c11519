// Package audit фиксирует, кто и что изменил, после коммита изменения.
// Запись аудита не блокирует бизнес-операцию и не ломает её: записи идут через
// ограниченную очередь, потери и ошибки sink логируются и считаются.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

const (
	defaultQueueSize = 100
	sinkTimeout      = 5 * time.Second
)

// Sink сохраняет записи аудита. Реализуется *applog.Repository
type Sink interface {
	Create(ctx context.Context, entry domain.AuditLog) error
}

// FailureRecorder считает потерянные записи. Реализуется *metrics.Metrics
type FailureRecorder interface {
	IncAuditFailure(reason string)
}

// Logger интерфейс логгера для диспетчера
type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Dispatcher пишет записи аудита из фонового воркера
type Dispatcher struct {
	sink    Sink
	logger  Logger
	metrics FailureRecorder

	mu     sync.RWMutex
	closed bool
	queue  chan domain.AuditLog
	done   chan struct{}
	now    func() time.Time
}

// NewDispatcher запускает воркер. При queueSize <= 0 используется 100
func NewDispatcher(sink Sink, queueSize int, logger Logger, metrics FailureRecorder) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	d := &Dispatcher{
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan domain.AuditLog, queueSize),
		done:    make(chan struct{}),
		now:     time.Now,
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for entry := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err := d.sink.Create(ctx, entry)
		cancel()

		if err != nil {
			d.logger.Error("Audit: failed to persist %s %s id=%s by user=%s: %v",
				entry.Action, entry.Entity, entry.EntityID, entry.UserID, err)
			d.fail("sink_error")
		}
	}
}

// Record ставит запись в очередь без блокировки. Если очередь заполнена,
// запись отбрасывается.
func (d *Dispatcher) Record(userID string, action domain.AuditAction, entity domain.AuditEntity, entityID string, details *string) {
	entry := domain.AuditLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		CreatedAt: d.now().UTC(),
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Audit: dispatcher closed, dropping %s %s id=%s", action, entity, entityID)
		d.fail("closed")
		return
	}

	select {
	case d.queue <- entry:
	default:
		d.logger.Warn("Audit: queue full, dropping %s %s id=%s", action, entity, entityID)
		d.fail("queue_full")
	}
}

func (d *Dispatcher) fail(reason string) {
	if d.metrics != nil {
		d.metrics.IncAuditFailure(reason)
	}
}

// Close перестает принимать записи и ждет записи очереди,
// но не дольше дедлайна контекста.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit: drain interrupted: %w", ctx.Err())
	}
}
