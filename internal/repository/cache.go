package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	reportCacheKeyPrefix   = "report:"
	reportVersionKeyPrefix = "report:ver:"
	// versionGrace - запас жизни счётчика версий сверх TTL кеша
	versionGrace = time.Minute
)

// errStaleFill - пока читали хранилище, отчёт успели изменить
var errStaleFill = errors.New("report changed during cache fill")

// CachedReportRepository читает отчёты по id через Redis; любая запись сбрасывает ключ.
// Каждая запись увеличивает версию отчёта, и промах кладёт документ в кеш
// только если версия не изменилась с начала чтения (WATCH/MULTI).
// Ошибки Redis только логируются, запросы уходят в основное хранилище.
type CachedReportRepository struct {
	next        service.ReportRepository
	redisClient *redis.Client
	ttl         time.Duration
	logger      *logrus.Logger
}

func NewCachedReportRepository(next service.ReportRepository, redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedReportRepository {
	return &CachedReportRepository{
		next:        next,
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

func reportCacheKey(id string) string {
	return reportCacheKeyPrefix + id
}

func reportVersionKey(id string) string {
	return reportVersionKeyPrefix + id
}

func (r *CachedReportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.next.Create(ctx, report)
}

// GetByID пытается получить отчёт из Redis, при промахе читает хранилище и кладёт в кеш
func (r *CachedReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	log := r.logger.WithFields(logrus.Fields{
		"component": "report_cache",
		"report_id": id,
	})

	cached, err := r.getFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Report cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	version, verErr := parseVersion(r.redisClient.Get(ctx, reportVersionKey(id)))

	report, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if verErr != nil {
		log.WithError(verErr).Warn("Report version read failed, skipping cache fill")
		return report, nil
	}

	switch err := r.fillCache(ctx, report, version); {
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		log.Debug("Report changed while reading, cache fill skipped")
	case err != nil:
		log.WithError(err).Warn("Report cache write failed")
	}
	return report, nil
}

func (r *CachedReportRepository) GetByCode(ctx context.Context, code string) (*models.Report, error) {
	return r.next.GetByCode(ctx, code)
}

func (r *CachedReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]*models.Report, error) {
	return r.next.List(ctx, filter)
}

func (r *CachedReportRepository) Update(ctx context.Context, id string, updates []models.FieldUpdate) error {
	err := r.next.Update(ctx, id, updates)
	r.invalidate(ctx, id)
	return err
}

func (r *CachedReportRepository) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *CachedReportRepository) getFromCache(ctx context.Context, id string) (*models.Report, error) {
	val, err := r.redisClient.Get(ctx, reportCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report from cache: %w", err)
	}

	report := &models.Report{}
	if err := json.Unmarshal(val, report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report from cache: %w", err)
	}
	return report, nil
}

// fillCache пишет отчёт, только если версия всё ещё равна прочитанной до похода в хранилище
func (r *CachedReportRepository) fillCache(ctx context.Context, report *models.Report, version int64) error {
	val, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report for cache: %w", err)
	}

	versionKey := reportVersionKey(report.ID)
	err = r.redisClient.Watch(ctx, func(tx *redis.Tx) error {
		current, err := parseVersion(tx.Get(ctx, versionKey))
		if err != nil {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, reportCacheKey(report.ID), val, r.ttl)
			return nil
		})
		return err
	}, versionKey)
	if err != nil && !errors.Is(err, errStaleFill) && !errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("failed to set report in cache: %w", err)
	}
	return err
}

// invalidate вызывается после записи в хранилище: новая версия отменяет незавершённые заполнения
func (r *CachedReportRepository) invalidate(ctx context.Context, id string) {
	versionKey := reportVersionKey(id)
	_, err := r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, r.ttl+versionGrace)
		pipe.Del(ctx, reportCacheKey(id))
		return nil
	})
	if err != nil {
		r.logger.WithError(err).WithField("report_id", id).Warn("Failed to invalidate report cache")
	}
}

// parseVersion: отсутствующий счётчик - версия 0
func parseVersion(cmd *redis.StringCmd) (int64, error) {
	v, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read report version: %w", err)
	}
	return v, nil
}
