package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/observability"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=media.go -destination=mocks/mock_media.go -package=mocks

const (
	imageObjectPrefix   = "incident-images/"
	fallbackNote        = "Stored as fallback due to Storage error"
	defaultImageType    = "image/jpeg"
	fallbackImageRoute  = "/api/v1/reports/images/"
	maxDecodedImageSize = 10 << 20
)

// dataURLPrefix совпадает с заголовком "data:image/<type>;base64,"
var dataURLPrefix = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,`)

// ObjectStorage - публичное объектное хранилище фотографий
type ObjectStorage interface {
	// Upload сохраняет объект и возвращает его публичный URL
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// ImageRepository - резервная коллекция изображений в базе
type ImageRepository interface {
	SaveFallback(ctx context.Context, image *models.FallbackImage) error
	GetFallback(ctx context.Context, id string) (*models.FallbackImage, error)
}

// MediaService принимает фото от заявителя
type MediaService interface {
	StoreImage(ctx context.Context, image string) (*models.StoredImage, error)
	GetFallbackImage(ctx context.Context, id string) (*models.ImagePayload, error)
}

type mediaService struct {
	storage ObjectStorage
	images  ImageRepository
	baseURL string
	logger  *logrus.Logger
	now     func() time.Time
}

// NewMediaService собирает приём фото. storage может быть nil, тогда всё уходит в резервную коллекцию.
func NewMediaService(storage ObjectStorage, images ImageRepository, publicBaseURL string, logger *logrus.Logger) MediaService {
	return &mediaService{
		storage: storage,
		images:  images,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// StoreImage загружает фото в хранилище, при ошибке сохраняет его в базе
func (s *mediaService) StoreImage(ctx context.Context, image string) (*models.StoredImage, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "media",
		"method":  "StoreImage",
	})

	if strings.TrimSpace(image) == "" {
		log.Warn("Empty image payload")
		return nil, NewValidationError("No image provided")
	}

	contentType, data, err := decodeImage(image)
	if err != nil {
		log.WithError(err).Warn("Image payload could not be decoded")
		return nil, err
	}
	log = log.WithField("size", len(data))

	if s.storage != nil {
		name := imageObjectPrefix + uuid.NewString() + ".jpg"
		url, err := s.storage.Upload(ctx, name, data, contentType)
		if err == nil {
			observability.ImageUploads.WithLabelValues("storage").Inc()
			log.WithField("object", name).Info("Image uploaded to object storage")
			return &models.StoredImage{URL: url, Filename: name}, nil
		}
		log.WithError(err).Warn("Object storage upload failed, using fallback")
	}

	fallback := &models.FallbackImage{
		ImageData: image,
		Size:      len(data),
		CreatedAt: s.now().UTC(),
	}
	if err := s.images.SaveFallback(ctx, fallback); err != nil {
		observability.ImageUploads.WithLabelValues("failed").Inc()
		log.WithError(err).Error("Failed to store fallback image")
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	observability.ImageUploads.WithLabelValues("fallback").Inc()
	log.WithField("image_id", fallback.ID).Info("Image stored in fallback collection")
	return &models.StoredImage{
		URL:      s.baseURL + fallbackImageRoute + fallback.ID,
		Filename: "fallback-" + fallback.ID + ".jpg",
		Note:     fallbackNote,
	}, nil
}

// GetFallbackImage отдаёт сохранённое в базе фото
func (s *mediaService) GetFallbackImage(ctx context.Context, id string) (*models.ImagePayload, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "media",
		"method":   "GetFallbackImage",
		"image_id": id,
	})

	stored, err := s.images.GetFallback(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get fallback image")
		return nil, fmt.Errorf("service: could not get fallback image: %w", err)
	}

	contentType, data, err := decodeImage(stored.ImageData)
	if err != nil {
		log.WithError(err).Error("Stored fallback image is corrupt")
		return nil, fmt.Errorf("service: stored image %s is corrupt: %v", id, err)
	}
	return &models.ImagePayload{ContentType: contentType, Data: data}, nil
}

// decodeImage снимает data-URL заголовок и раскодирует base64
func decodeImage(image string) (string, []byte, error) {
	contentType := defaultImageType
	payload := strings.TrimSpace(image)
	if m := dataURLPrefix.FindStringSubmatch(payload); m != nil {
		contentType = m[1]
		payload = payload[len(m[0]):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return "", nil, NewValidationError("Image is not valid base64")
		}
	}
	if len(data) == 0 {
		return "", nil, NewValidationError("No image provided")
	}
	if len(data) > maxDecodedImageSize {
		return "", nil, NewValidationError("Image exceeds %d bytes", maxDecodedImageSize)
	}
	return contentType, data, nil
}
