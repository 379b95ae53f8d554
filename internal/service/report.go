package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/observability"
	"github.com/shenikar/critter_connect/internal/webhook"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=report.go -destination=mocks/mock_report.go -package=mocks

// ReportRepository определяет контракт для хранилища документов отчётов
type ReportRepository interface {
	// Create сохраняет документ одним вызовом и проставляет report.ID
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	// GetByCode возвращает первый документ с данным кодом
	GetByCode(ctx context.Context, code string) (*models.Report, error)
	// List возвращает отчёты от новых к старым
	List(ctx context.Context, filter models.ReportFilter) ([]*models.Report, error)
	Update(ctx context.Context, id string, updates []models.FieldUpdate) error
	Delete(ctx context.Context, id string) error
}

// Geocoder нормализует адрес и находит почтовый индекс
type Geocoder interface {
	Resolve(ctx context.Context, address string) (*models.ResolvedLocation, error)
}

// EventPublisher рассылает доменные события подключённым панелям
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// ReportService определяет контракт бизнес-логики жизненного цикла отчёта
type ReportService interface {
	CreateReport(ctx context.Context, input models.ReportInput) (*models.CreatedReport, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	GetReportByCode(ctx context.Context, code string) (*models.Report, error)
	ListReports(ctx context.Context, filter models.ReportFilter) ([]*models.Report, error)
	UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.Report, error)
	UpdateFields(ctx context.Context, id string, patch models.ReportPatch) (*models.Report, error)
	DeleteReport(ctx context.Context, id string) error
}

type reportService struct {
	repo     ReportRepository
	geocoder Geocoder
	events   EventPublisher
	webhooks webhook.WebhookPublisher
	logger   *logrus.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewReportService собирает оркестратор. events и webhooks могут быть nil:
// рассылка необязательна и пропускается молча.
func NewReportService(repo ReportRepository, geocoder Geocoder, events EventPublisher, webhooks webhook.WebhookPublisher, logger *logrus.Logger) ReportService {
	return &reportService{
		repo:     repo,
		geocoder: geocoder,
		events:   events,
		webhooks: webhooks,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
	}
}

// newValidator сообщает имена полей из json-тегов, чтобы ошибки совпадали с телом запроса
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// CreateReport проверяет ввод, геокодирует адрес, сохраняет документ и рассылает событие
func (s *reportService) CreateReport(ctx context.Context, input models.ReportInput) (*models.CreatedReport, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "report",
		"method":   "CreateReport",
		"severity": input.Severity,
	})
	log.Info("Attempting to create a new report")

	// 1. Обязательные поля и перечисления
	if err := s.validateInput(input); err != nil {
		log.WithError(err).Warn("Report input rejected")
		return nil, err
	}
	sighting, err := parseSightingTime(input.SightingDateTime)
	if err != nil {
		log.WithError(err).Warn("Invalid sighting time")
		return nil, err
	}

	// 2. Адрес
	address := strings.TrimSpace(input.Location)
	if address == "" {
		log.Warn("Report has no location")
		return nil, NewValidationError("Location is required")
	}

	// 3. Почтовый индекс
	resolved, err := s.geocoder.Resolve(ctx, address)
	if err != nil {
		log.WithError(err).Warn("Location could not be resolved")
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnresolvedLocation, err)
	}

	// 4. Сохранение
	now := s.now().UTC()
	report := buildReport(input, resolved, sighting, now)
	if err := s.repo.Create(ctx, report); err != nil {
		log.WithError(err).Error("Failed to create report in repository")
		return nil, fmt.Errorf("service: could not create report: %w", err)
	}
	observability.ReportsCreated.WithLabelValues(string(report.Severity)).Inc()
	log.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"report_code": report.ReportCode,
	}).Info("Report created successfully")

	s.publish(ctx, log, models.Event{Type: models.EventReportCreated, Data: report})
	if report.IsUrgent {
		s.notifyUrgent(ctx, log, report)
	}

	return &models.CreatedReport{
		ID:         report.ID,
		ReportCode: report.ReportCode,
		Status:     report.Status,
		Priority:   report.Priority,
		IsUrgent:   report.IsUrgent,
		CreatedAt:  report.CreatedAt,
	}, nil
}

func (s *reportService) validateInput(input models.ReportInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("service: could not validate report: %w", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	if len(missing) > 0 {
		return missingFieldsError(missing)
	}
	return NewValidationError("Invalid fields: %s", strings.Join(invalid, ", "))
}

var sightingLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseSightingTime принимает RFC3339 и формат поля datetime-local
func parseSightingTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range sightingLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewValidationError("Invalid sightingDateTime %q", value)
}

func buildReport(input models.ReportInput, loc *models.ResolvedLocation, sighting, now time.Time) *models.Report {
	report := &models.Report{
		ReportCode:       GenerateReportCode(now),
		ReporterID:       trimmedOrNil(input.ReporterID),
		IncidentType:     input.IncidentType,
		Severity:         input.Severity,
		Description:      strings.TrimSpace(input.Description),
		Location: models.Location{
			Address:    loc.EnglishAddress,
			PostalCode: loc.PostalCode,
			Lat:        loc.Lat,
			Lng:        loc.Lng,
		},
		SightingDateTime: sighting,
		SpeciesName:      strings.TrimSpace(input.SpeciesName),
		AnimalCondition:  strings.TrimSpace(input.AnimalCondition),
		Assessment:       models.Assessment{IsMovingNormally: input.IsMovingNormally},
		PhotoURLs:        models.TruncatePhotoURLs(input.PhotoURLs),
		Status:           models.StatusPending,
		Priority:         models.PriorityFor(input.Severity),
		IsUrgent:         models.IsUrgentSeverity(input.Severity),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if input.IncidentType == models.IncidentTypeOther {
		report.IncidentTypeOther = strings.TrimSpace(input.IncidentTypeOther)
	}
	return report
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// GetReport получает отчёт по внутреннему id
func (s *reportService) GetReport(ctx context.Context, id string) (*models.Report, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "GetReport",
		"report_id": id,
	})
	log.Info("Fetching report by ID")

	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get report from repository")
		return nil, fmt.Errorf("service: could not get report: %w", err)
	}
	return report, nil
}

// GetReportByCode получает отчёт по человекочитаемому коду
func (s *reportService) GetReportByCode(ctx context.Context, code string) (*models.Report, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "report",
		"method":      "GetReportByCode",
		"report_code": code,
	})
	log.Info("Fetching report by code")

	report, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		log.WithError(err).Warn("Failed to get report by code from repository")
		return nil, fmt.Errorf("service: could not get report by code: %w", err)
	}
	return report, nil
}

// ListReports возвращает отчёты от новых к старым
func (s *reportService) ListReports(ctx context.Context, filter models.ReportFilter) ([]*models.Report, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "report",
		"method":   "ListReports",
		"status":   filter.Status,
		"priority": filter.Priority,
	})
	log.Info("Listing reports")

	reports, err := s.repo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list reports from repository")
		return nil, fmt.Errorf("service: could not list reports: %w", err)
	}

	// Радиус хранилища не проверяют, отбор по расстоянию здесь
	if filter.Near != nil {
		nearby := make([]*models.Report, 0, len(reports))
		for _, report := range reports {
			if filter.Matches(report) {
				nearby = append(nearby, report)
			}
		}
		reports = nearby
	}

	log.WithField("count", len(reports)).Info("Reports listed successfully")
	return reports, nil
}

// UpdateStatus меняет статус; переходы не ограничиваются, возврат из завершённых логируется
func (s *reportService) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.Report, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "UpdateStatus",
		"report_id": id,
		"status":    update.Status,
	})
	log.Info("Attempting to update report status")

	if _, err := models.ParseStatus(string(update.Status)); err != nil {
		log.WithError(err).Warn("Status rejected")
		return nil, NewValidationError("Invalid status %q (must be one of pending, in-progress, resolved, closed)", update.Status)
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update status of a non-existent report")
		return nil, fmt.Errorf("service: report with id %s not found for status update: %w", id, err)
	}

	switch models.ClassifyTransition(existing.Status, update.Status) {
	case models.TransitionReopen:
		log.WithField("from", existing.Status).Warn("Reopening a finished report")
	case models.TransitionBackward:
		log.WithField("from", existing.Status).Warn("Moving report status backwards")
	}

	return s.applyUpdates(ctx, log, id, update.Updates(s.now().UTC()))
}

// UpdateFields применяет частичный патч; пустой патч - ошибка валидации
func (s *reportService) UpdateFields(ctx context.Context, id string, patch models.ReportPatch) (*models.Report, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "UpdateFields",
		"report_id": id,
	})
	log.Info("Attempting to update report fields")

	if patch.IsEmpty() {
		log.Warn("Empty patch rejected")
		return nil, NewValidationError("No fields to update")
	}
	if err := s.validate.Struct(patch); err != nil {
		log.WithError(err).Warn("Patch rejected")
		return nil, NewValidationError("Invalid fields: %v", err)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent report")
		return nil, fmt.Errorf("service: report with id %s not found for update: %w", id, err)
	}

	return s.applyUpdates(ctx, log, id, patch.Updates(s.now().UTC()))
}

func (s *reportService) applyUpdates(ctx context.Context, log *logrus.Entry, id string, updates []models.FieldUpdate) (*models.Report, error) {
	if err := s.repo.Update(ctx, id, updates); err != nil {
		log.WithError(err).Error("Failed to update report in repository")
		return nil, fmt.Errorf("service: could not update report: %w", err)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to re-read updated report")
		return nil, fmt.Errorf("service: could not read updated report: %w", err)
	}

	log.Info("Report updated successfully")
	s.publish(ctx, log, models.Event{Type: models.EventReportUpdated, Data: updated})
	return updated, nil
}

// DeleteReport физически удаляет документ; несуществующий id - ErrNotFound
func (s *reportService) DeleteReport(ctx context.Context, id string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "DeleteReport",
		"report_id": id,
	})
	log.Info("Attempting to delete report")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to delete a non-existent report")
		return fmt.Errorf("service: report with id %s not found for delete: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete report in repository")
		return fmt.Errorf("service: could not delete report: %w", err)
	}

	log.Info("Report deleted successfully")
	s.publish(ctx, log, models.Event{
		Type: models.EventReportDeleted,
		Data: models.ReportDeletedPayload{ID: id, ReportCode: existing.ReportCode},
	})
	return nil
}

func (s *reportService) publish(ctx context.Context, log *logrus.Entry, event models.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("event", event.Type).Warn("Failed to broadcast event")
	}
}

func (s *reportService) notifyUrgent(ctx context.Context, log *logrus.Entry, report *models.Report) {
	if s.webhooks == nil {
		return
	}
	event := webhook.WebhookEvent{
		Event: webhook.EventUrgentReport,
		Report: models.UrgentReportNotification{
			ReportID:   report.ID,
			ReportCode: report.ReportCode,
			Severity:   report.Severity,
			Address:    report.Location.Address,
			PostalCode: report.Location.PostalCode,
			CreatedAt:  report.CreatedAt,
		},
		Timestamp: s.now().UTC(),
	}
	if err := s.webhooks.Publish(ctx, event); err != nil {
		log.WithError(err).Warn("Failed to enqueue urgent report webhook")
	}
}
