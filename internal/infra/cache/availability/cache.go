package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/pkg/types"
)

const (
	keyPrefix        = "availability"
	globalGenKey     = keyPrefix + ":gen"
	dateGenKeyPrefix = keyPrefix + ":gen:"
	dateGenTTL       = 7 * 24 * time.Hour
	allTherapists    = "all"
)

// Key идентифицирует один запрос доступности
type Key struct {
	Date            string
	ServiceID       string
	DurationMinutes int
	TherapistID     string // пусто для всех терапевтов
}

// HitRecorder считает обращения. Реализуется *metrics.Metrics
type HitRecorder interface {
	IncAvailabilityCache(result string)
}

// Cache хранит ответы доступности в Redis.
//
// Значения версионируются глобальным поколением и поколением даты.
// Инвалидация только увеличивает поколение, поэтому значения, посчитанные до
// изменения, не отдаются после него, даже если сохранены позже.
type Cache struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	metrics HitRecorder
}

// New создает кэш поверх Redis
func New(rdb redis.Cmdable, ttl time.Duration, metrics HitRecorder) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, metrics: metrics}
}

type entry struct {
	Date                   string      `json:"date"`
	Timezone               string      `json:"timezone"`
	ServiceID              string      `json:"serviceId"`
	ServiceDurationMinutes int         `json:"serviceDurationMinutes"`
	FreeIntervals          [][2]string `json:"freeIntervals"`
}

// Get возвращает значение из кэша или nil при промахе. Возвращаемый slot это
// версионированный ключ, под которым свежее значение сохраняется через Set.
func (c *Cache) Get(ctx context.Context, key Key) (*domain.Availability, string, error) {
	gens, err := c.rdb.MGet(ctx, globalGenKey, dateGenKeyPrefix+key.Date).Result()
	if err != nil {
		c.record("error")
		return nil, "", fmt.Errorf("availability cache: read generations: %w", err)
	}

	slot := fmt.Sprintf("%s:%s:g%d.%d:%s:%d:%s",
		keyPrefix, key.Date, generation(gens[0]), generation(gens[1]),
		key.ServiceID, key.DurationMinutes, therapistPart(key.TherapistID))

	raw, err := c.rdb.Get(ctx, slot).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record("miss")
		return nil, slot, nil
	}
	if err != nil {
		c.record("error")
		return nil, "", fmt.Errorf("availability cache: get: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.record("error")
		return nil, slot, fmt.Errorf("availability cache: decode: %w", err)
	}

	c.record("hit")
	return fromEntry(e), slot, nil
}

// Set сохраняет значение под slot, полученным из Get
func (c *Cache) Set(ctx context.Context, slot string, value *domain.Availability) error {
	if slot == "" || value == nil {
		return nil
	}
	raw, err := json.Marshal(toEntry(value))
	if err != nil {
		return fmt.Errorf("availability cache: encode: %w", err)
	}
	if err := c.rdb.Set(ctx, slot, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("availability cache: set: %w", err)
	}
	return nil
}

// InvalidateDates сбрасывает кэш доступности для указанных локальных дат
func (c *Cache) InvalidateDates(ctx context.Context, dates ...string) error {
	if len(dates) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range dates {
			pipe.Incr(ctx, dateGenKeyPrefix+d)
			pipe.Expire(ctx, dateGenKeyPrefix+d, dateGenTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("availability cache: invalidate dates: %w", err)
	}
	return nil
}

// InvalidateAll сбрасывает весь кэш доступности (после смены расписаний)
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, globalGenKey).Err(); err != nil {
		return fmt.Errorf("availability cache: invalidate all: %w", err)
	}
	return nil
}

func (c *Cache) record(result string) {
	if c.metrics != nil {
		c.metrics.IncAvailabilityCache(result)
	}
}

func generation(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func therapistPart(id string) string {
	if id == "" {
		return allTherapists
	}
	return id
}

func toEntry(a *domain.Availability) entry {
	e := entry{
		Date:                   a.Date,
		Timezone:               a.Timezone,
		ServiceID:              a.ServiceID,
		ServiceDurationMinutes: a.ServiceDurationMinutes,
		FreeIntervals:          make([][2]string, 0, len(a.FreeIntervals)),
	}
	for _, fi := range a.FreeIntervals {
		e.FreeIntervals = append(e.FreeIntervals, [2]string{fi.Start.String(), fi.End.String()})
	}
	return e
}

func fromEntry(e entry) *domain.Availability {
	a := &domain.Availability{
		Date:                   e.Date,
		Timezone:               e.Timezone,
		ServiceID:              e.ServiceID,
		ServiceDurationMinutes: e.ServiceDurationMinutes,
		FreeIntervals:          make([]domain.FreeInterval, 0, len(e.FreeIntervals)),
	}
	for _, fi := range e.FreeIntervals {
		a.FreeIntervals = append(a.FreeIntervals, domain.FreeInterval{
			Start: types.TimeString(fi[0]),
			End:   types.TimeString(fi[1]),
		})
	}
	return a
}

// Noop используется при выключенном Redis
type Noop struct{}

func (Noop) Get(context.Context, Key) (*domain.Availability, string, error) { return nil, "", nil }

func (Noop) Set(context.Context, string, *domain.Availability) error { return nil }

func (Noop) InvalidateDates(context.Context, ...string) error { return nil }

func (Noop) InvalidateAll(context.Context) error { return nil }
