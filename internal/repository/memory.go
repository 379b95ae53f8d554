package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/service"
)

// MemoryReportRepository держит отчёты в памяти процесса. Отдаёт копии, чтобы вызывающий не менял хранилище.
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports map[string]*models.Report
}

func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{reports: make(map[string]*models.Report)}
}

func (r *MemoryReportRepository) Create(_ context.Context, report *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.ID = uuid.NewString()
	r.reports[report.ID] = cloneReport(report)
	return nil
}

func (r *MemoryReportRepository) GetByID(_ context.Context, id string) (*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, fmt.Errorf("report with id %s: %w", id, service.ErrNotFound)
	}
	return cloneReport(report), nil
}

// GetByCode при коллизии кода возвращает самый ранний отчёт
func (r *MemoryReportRepository) GetByCode(_ context.Context, code string) (*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *models.Report
	for _, report := range r.reports {
		if report.ReportCode != code {
			continue
		}
		if found == nil || report.CreatedAt.Before(found.CreatedAt) {
			found = report
		}
	}
	if found == nil {
		return nil, fmt.Errorf("report with code %s: %w", code, service.ErrNotFound)
	}
	return cloneReport(found), nil
}

func (r *MemoryReportRepository) List(_ context.Context, filter models.ReportFilter) ([]*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reports := make([]*models.Report, 0, len(r.reports))
	for _, report := range r.reports {
		if filter.Matches(report) {
			reports = append(reports, cloneReport(report))
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (r *MemoryReportRepository) Update(_ context.Context, id string, updates []models.FieldUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return fmt.Errorf("report with id %s not found for update: %w", id, service.ErrNotFound)
	}
	models.Apply(report, updates)
	return nil
}

func (r *MemoryReportRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[id]; !ok {
		return fmt.Errorf("report with id %s not found for delete: %w", id, service.ErrNotFound)
	}
	delete(r.reports, id)
	return nil
}

func cloneReport(src *models.Report) *models.Report {
	dst := *src
	dst.PhotoURLs = append([]string(nil), src.PhotoURLs...)
	if src.ReporterID != nil {
		v := *src.ReporterID
		dst.ReporterID = &v
	}
	if src.ResolvedAt != nil {
		v := *src.ResolvedAt
		dst.ResolvedAt = &v
	}
	return &dst
}

// MemoryImageRepository - резервные изображения в памяти
type MemoryImageRepository struct {
	mu     sync.RWMutex
	images map[string]models.FallbackImage
}

func NewMemoryImageRepository() *MemoryImageRepository {
	return &MemoryImageRepository{images: make(map[string]models.FallbackImage)}
}

func (r *MemoryImageRepository) SaveFallback(_ context.Context, image *models.FallbackImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	image.ID = uuid.NewString()
	r.images[image.ID] = *image
	return nil
}

func (r *MemoryImageRepository) GetFallback(_ context.Context, id string) (*models.FallbackImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	image, ok := r.images[id]
	if !ok {
		return nil, fmt.Errorf("fallback image %s: %w", id, service.ErrNotFound)
	}
	return &image, nil
}
