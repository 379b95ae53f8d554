package service

import (
	"context"
	"strings"
	"time"

	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/observability"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=species.go -destination=mocks/mock_species.go -package=mocks

// UnavailableMessage показывается, когда классификатор не ответил
const UnavailableMessage = "Species identification service temporarily unavailable"

// Classifier - внешний сервис распознавания вида по фото
type Classifier interface {
	Classify(ctx context.Context, image []byte) (*models.SpeciesIdentification, error)
}

// SpeciesService определяет контракт распознавания вида
type SpeciesService interface {
	// IdentifySpecies не возвращает ошибку при сбое классификатора, только результат с Available=false
	IdentifySpecies(ctx context.Context, image string) (*models.SpeciesIdentification, error)
}

type speciesService struct {
	classifier Classifier
	logger     *logrus.Logger
}

func NewSpeciesService(classifier Classifier, logger *logrus.Logger) SpeciesService {
	return &speciesService{
		classifier: classifier,
		logger:     logger,
	}
}

// IdentifySpecies раскодирует фото и спрашивает классификатор
func (s *speciesService) IdentifySpecies(ctx context.Context, image string) (*models.SpeciesIdentification, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "species",
		"method":  "IdentifySpecies",
	})

	if strings.TrimSpace(image) == "" {
		log.Warn("Empty image payload")
		return nil, NewValidationError("No image provided")
	}
	_, data, err := decodeImage(image)
	if err != nil {
		log.WithError(err).Warn("Image payload could not be decoded")
		return nil, err
	}

	if s.classifier == nil {
		observability.ClassifierResults.WithLabelValues("unavailable").Inc()
		return unavailable(), nil
	}

	start := time.Now()
	result, err := s.classifier.Classify(ctx, data)
	observability.ClassifierLatency.Observe(time.Since(start).Seconds())
	if err != nil || result == nil {
		observability.ClassifierResults.WithLabelValues("unavailable").Inc()
		log.WithError(err).Warn("Species classifier unavailable")
		return unavailable(), nil
	}

	outcome := "identified"
	if !result.Identified() {
		outcome = "unidentified"
	}
	observability.ClassifierResults.WithLabelValues(outcome).Inc()
	log.WithFields(logrus.Fields{
		"label":      result.Label,
		"confidence": result.Confidence,
		"outcome":    outcome,
	}).Info("Species classified")
	return result, nil
}

func unavailable() *models.SpeciesIdentification {
	return &models.SpeciesIdentification{
		Available: false,
		Message:   UnavailableMessage,
	}
}
