package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/service"
)

// PostgresReportRepository хранит отчёт целиком в JSONB-колонке doc
type PostgresReportRepository struct {
	db *pgxpool.Pool
}

func NewPostgresReportRepository(db *pgxpool.Pool) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

// Create создает новую запись об отчёте в бд
func (r *PostgresReportRepository) Create(ctx context.Context, report *models.Report) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	query := `
		INSERT INTO incident_reports (report_code, doc, created_at, updated_at)
		VALUES ($1, $2::jsonb - 'id', $3, $4) RETURNING id;
	`
	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, report.ReportCode, doc, report.CreatedAt, report.UpdatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	report.ID = id.String()
	return nil
}

// GetByID возвращает отчёт по его UUID
func (r *PostgresReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("report with id %s: %w", id, service.ErrNotFound)
	}
	query := `SELECT id, doc FROM incident_reports WHERE id = $1;`
	report, err := scanReport(r.db.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report with id %s: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report by id: %w", err)
	}
	return report, nil
}

// GetByCode возвращает первый отчёт с данным кодом
func (r *PostgresReportRepository) GetByCode(ctx context.Context, code string) (*models.Report, error) {
	query := `
		SELECT id, doc FROM incident_reports
		WHERE report_code = $1
		ORDER BY created_at
		LIMIT 1;
	`
	report, err := scanReport(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report with code %s: %w", code, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report by code: %w", err)
	}
	return report, nil
}

// List возвращает отчёты от новых к старым
func (r *PostgresReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]*models.Report, error) {
	query := `
		SELECT id, doc FROM incident_reports
		WHERE ($1 = '' OR doc->>'status' = $1)
			AND ($2 = '' OR doc->>'priority' = $2)
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, string(filter.Status), string(filter.Priority))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return reports, nil
}

// Update сливает изменённые поля в doc одним UPDATE
func (r *PostgresReportRepository) Update(ctx context.Context, id string, updates []models.FieldUpdate) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("report with id %s: %w", id, service.ErrNotFound)
	}
	patch, err := jsonPatch(updates)
	if err != nil {
		return err
	}
	query := `
		UPDATE incident_reports SET
			doc = doc || $1::jsonb,
			updated_at = NOW()
		WHERE id = $2;
	`
	cmdTag, err := r.db.Exec(ctx, query, patch, uid)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	// RowsAffected() == 0 значит отчёта с таким id не существует
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("report with id %s not found for update: %w", id, service.ErrNotFound)
	}
	return nil
}

// Delete физически удаляет отчёт
func (r *PostgresReportRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("report with id %s: %w", id, service.ErrNotFound)
	}
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM incident_reports WHERE id = $1;`, uid)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("report with id %s not found for delete: %w", id, service.ErrNotFound)
	}
	return nil
}

// jsonPatch собирает объект {путь: значение} для оператора ||
func jsonPatch(updates []models.FieldUpdate) ([]byte, error) {
	patch := make(map[string]any, len(updates))
	for _, u := range updates {
		patch[u.Path] = u.Value
	}
	b, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report patch: %w", err)
	}
	return b, nil
}

func scanReport(row pgx.Row) (*models.Report, error) {
	var (
		id  uuid.UUID
		doc []byte
	)
	if err := row.Scan(&id, &doc); err != nil {
		return nil, err
	}
	report := &models.Report{}
	if err := json.Unmarshal(doc, report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report doc: %w", err)
	}
	report.ID = id.String()
	return report, nil
}

// PostgresImageRepository - резервные изображения в таблице image_fallbacks
type PostgresImageRepository struct {
	db *pgxpool.Pool
}

func NewPostgresImageRepository(db *pgxpool.Pool) *PostgresImageRepository {
	return &PostgresImageRepository{db: db}
}

func (r *PostgresImageRepository) SaveFallback(ctx context.Context, image *models.FallbackImage) error {
	query := `
		INSERT INTO image_fallbacks (image_data, size, created_at)
		VALUES ($1, $2, $3) RETURNING id;
	`
	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, image.ImageData, image.Size, image.CreatedAt).Scan(&id); err != nil {
		return fmt.Errorf("failed to save fallback image: %w", err)
	}
	image.ID = id.String()
	return nil
}

func (r *PostgresImageRepository) GetFallback(ctx context.Context, id string) (*models.FallbackImage, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("fallback image %s: %w", id, service.ErrNotFound)
	}
	image := &models.FallbackImage{ID: id}
	query := `SELECT image_data, size, created_at FROM image_fallbacks WHERE id = $1;`
	err = r.db.QueryRow(ctx, query, uid).Scan(&image.ImageData, &image.Size, &image.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("fallback image %s: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fallback image: %w", err)
	}
	return image, nil
}
