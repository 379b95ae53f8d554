package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/service"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// reportDocument добавляет _id к полям отчёта
type reportDocument struct {
	ObjectID      primitive.ObjectID `bson:"_id,omitempty"`
	models.Report `bson:",inline"`
}

func (d *reportDocument) toModel() *models.Report {
	report := d.Report
	report.ID = d.ObjectID.Hex()
	return &report
}

// MongoReportRepository - коллекция incidentReports в MongoDB
type MongoReportRepository struct {
	reports *mongo.Collection
}

func NewMongoReportRepository(db *mongo.Database) *MongoReportRepository {
	return &MongoReportRepository{reports: db.Collection(reportsCollection)}
}

// EnsureIndexes создает индексы по коду и времени создания
func (r *MongoReportRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: reportCodeField, Value: 1}}},
		{Keys: bson.D{{Key: reportCreatedField, Value: -1}}},
		{Keys: bson.D{{Key: reportStatusField, Value: 1}, {Key: reportCreatedField, Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}
	return nil
}

func (r *MongoReportRepository) Create(ctx context.Context, report *models.Report) error {
	res, err := r.reports.InsertOne(ctx, reportDocument{Report: *report})
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	report.ID = oid.Hex()
	return nil
}

func (r *MongoReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("report with id %s: %w", id, service.ErrNotFound)
	}
	return r.findOne(ctx, bson.M{"_id": oid}, "id "+id, options.FindOne())
}

func (r *MongoReportRepository) GetByCode(ctx context.Context, code string) (*models.Report, error) {
	return r.findOne(ctx, bson.M{reportCodeField: code}, "code "+code, codeLookupOptions())
}

// codeLookupOptions: при совпадении кодов отдаём самый ранний отчёт
func codeLookupOptions() *options.FindOneOptions {
	return options.FindOne().SetSort(bson.D{{Key: reportCreatedField, Value: 1}})
}

func (r *MongoReportRepository) findOne(ctx context.Context, filter bson.M, what string, opts *options.FindOneOptions) (*models.Report, error) {
	var doc reportDocument
	err := r.reports.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("report with %s: %w", what, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]*models.Report, error) {
	query := bson.M{}
	if filter.Status != "" {
		query[reportStatusField] = string(filter.Status)
	}
	if filter.Priority != "" {
		query[reportPriorityField] = string(filter.Priority)
	}

	opts := options.Find().SetSort(bson.D{{Key: reportCreatedField, Value: -1}})
	cur, err := r.reports.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer cur.Close(ctx)

	reports := make([]*models.Report, 0)
	for cur.Next(ctx) {
		var doc reportDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		reports = append(reports, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return reports, nil
}

func (r *MongoReportRepository) Update(ctx context.Context, id string, updates []models.FieldUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("report with id %s: %w", id, service.ErrNotFound)
	}
	res, err := r.reports.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bsonSet(updates)})
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("report with id %s not found for update: %w", id, service.ErrNotFound)
	}
	return nil
}

func (r *MongoReportRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("report with id %s: %w", id, service.ErrNotFound)
	}
	res, err := r.reports.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("report with id %s not found for delete: %w", id, service.ErrNotFound)
	}
	return nil
}

func bsonSet(updates []models.FieldUpdate) bson.D {
	set := make(bson.D, 0, len(updates))
	for _, u := range updates {
		set = append(set, bson.E{Key: u.Path, Value: u.Value})
	}
	return set
}

// MongoImageRepository - коллекция imageFallback, id задаётся как UUID
type MongoImageRepository struct {
	images *mongo.Collection
}

func NewMongoImageRepository(db *mongo.Database) *MongoImageRepository {
	return &MongoImageRepository{images: db.Collection(fallbackCollection)}
}

func (r *MongoImageRepository) SaveFallback(ctx context.Context, image *models.FallbackImage) error {
	image.ID = uuid.NewString()
	if _, err := r.images.InsertOne(ctx, image); err != nil {
		return fmt.Errorf("failed to save fallback image: %w", err)
	}
	return nil
}

func (r *MongoImageRepository) GetFallback(ctx context.Context, id string) (*models.FallbackImage, error) {
	image := &models.FallbackImage{}
	err := r.images.FindOne(ctx, bson.M{"_id": id}).Decode(image)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("fallback image %s: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fallback image: %w", err)
	}
	return image, nil
}
