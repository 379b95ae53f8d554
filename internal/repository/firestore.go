package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/service"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	reportsCollection   = "incidentReports"
	fallbackCollection  = "imageFallback"
	reportCodeField     = "reportId"
	reportCreatedField  = "createdAt"
	reportStatusField   = "status"
	reportPriorityField = "priority"
)

// FirestoreReportRepository - коллекция incidentReports
type FirestoreReportRepository struct {
	client *firestore.Client
}

func NewFirestoreReportRepository(client *firestore.Client) *FirestoreReportRepository {
	return &FirestoreReportRepository{client: client}
}

func (r *FirestoreReportRepository) col() *firestore.CollectionRef {
	return r.client.Collection(reportsCollection)
}

// Create добавляет документ с автоматическим id
func (r *FirestoreReportRepository) Create(ctx context.Context, report *models.Report) error {
	ref, _, err := r.col().Add(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	report.ID = ref.ID
	return nil
}

func (r *FirestoreReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	doc, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err, "report", id)
	}
	return decodeReport(doc)
}

// GetByCode ищет по полю reportId; при коллизии кода возвращается первый документ
func (r *FirestoreReportRepository) GetByCode(ctx context.Context, code string) (*models.Report, error) {
	iter := r.codeQuery(code).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("report with code %s: %w", code, service.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report by code: %w", err)
	}
	return decodeReport(doc)
}

// codeQuery выбирает самый ранний отчёт с данным кодом
func (r *FirestoreReportRepository) codeQuery(code string) firestore.Query {
	return r.col().Where(reportCodeField, "==", code).OrderBy(reportCreatedField, firestore.Asc).Limit(1)
}

// List фильтрует на стороне Firestore, а сортирует в памяти, чтобы не требовать составной индекс
func (r *FirestoreReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]*models.Report, error) {
	q := r.col().Query
	if filter.Status != "" {
		q = q.Where(reportStatusField, "==", string(filter.Status))
	}
	if filter.Priority != "" {
		q = q.Where(reportPriorityField, "==", string(filter.Priority))
	}
	if filter.Status == "" && filter.Priority == "" {
		q = q.OrderBy(reportCreatedField, firestore.Desc)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	reports := make([]*models.Report, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate reports: %w", err)
		}
		report, err := decodeReport(doc)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// Update применяет пути документа; несуществующий документ - ErrNotFound
func (r *FirestoreReportRepository) Update(ctx context.Context, id string, updates []models.FieldUpdate) error {
	if _, err := r.col().Doc(id).Update(ctx, firestoreUpdates(updates)); err != nil {
		return mapFirestoreError(err, "report", id)
	}
	return nil
}

func (r *FirestoreReportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.col().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return mapFirestoreError(err, "report", id)
	}
	return nil
}

func firestoreUpdates(updates []models.FieldUpdate) []firestore.Update {
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		out = append(out, firestore.Update{Path: u.Path, Value: u.Value})
	}
	return out
}

func decodeReport(doc *firestore.DocumentSnapshot) (*models.Report, error) {
	report := &models.Report{}
	if err := doc.DataTo(report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", doc.Ref.ID, err)
	}
	report.ID = doc.Ref.ID
	return report, nil
}

// mapFirestoreError переводит codes.NotFound в service.ErrNotFound
func mapFirestoreError(err error, kind, id string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s with id %s: %w", kind, id, service.ErrNotFound)
	}
	return fmt.Errorf("firestore %s %s: %w", kind, id, err)
}

// FirestoreImageRepository - резервная коллекция imageFallback
type FirestoreImageRepository struct {
	client *firestore.Client
}

func NewFirestoreImageRepository(client *firestore.Client) *FirestoreImageRepository {
	return &FirestoreImageRepository{client: client}
}

func (r *FirestoreImageRepository) SaveFallback(ctx context.Context, image *models.FallbackImage) error {
	ref, _, err := r.client.Collection(fallbackCollection).Add(ctx, image)
	if err != nil {
		return fmt.Errorf("failed to save fallback image: %w", err)
	}
	image.ID = ref.ID
	return nil
}

func (r *FirestoreImageRepository) GetFallback(ctx context.Context, id string) (*models.FallbackImage, error) {
	doc, err := r.client.Collection(fallbackCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err, "fallback image", id)
	}
	image := &models.FallbackImage{}
	if err := doc.DataTo(image); err != nil {
		return nil, fmt.Errorf("failed to parse fallback image %s: %w", id, err)
	}
	image.ID = doc.Ref.ID
	return image, nil
}
