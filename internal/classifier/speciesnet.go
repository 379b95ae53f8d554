// Package classifier - клиент внешнего сервиса SpeciesNet.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/observability"
	"github.com/sirupsen/logrus"
)

const (
	predictPath = "/predict"
	// UnidentifiedMessage подсказывает ввести вид вручную
	UnidentifiedMessage = "Unable to identify the species with confidence. Please enter the species manually."
	maxResponseSize     = 1 << 20
)

// ErrUnexpectedResponse - ответ не совпал с ожидаемой схемой
var ErrUnexpectedResponse = errors.New("unexpected classifier response")

// genericLabels не считаются определением вида
var genericLabels = map[string]struct{}{
	"unknown": {},
	"animal":  {},
	"mammal":  {},
	"blank":   {},
}

// SpeciesNet отправляет фото в /predict и нормализует ответ
type SpeciesNet struct {
	baseURL       string
	minConfidence float64
	httpClient    *http.Client
	logger        *logrus.Logger
}

func NewSpeciesNet(baseURL string, timeout time.Duration, minConfidence float64, logger *logrus.Logger) *SpeciesNet {
	return &SpeciesNet{
		baseURL:       strings.TrimRight(baseURL, "/"),
		minConfidence: minConfidence,
		httpClient:    observability.InstrumentClient(&http.Client{Timeout: timeout}),
		logger:        logger,
	}
}

// predictResponse - {"predictions": {"predictions": [{"prediction": "...;common name", "prediction_score": 0.9}]}}
type predictResponse struct {
	Predictions *struct {
		Predictions []struct {
			Prediction      *string  `json:"prediction"`
			PredictionScore *float64 `json:"prediction_score"`
		} `json:"predictions"`
	} `json:"predictions"`
}

// Classify возвращает ошибку при любом сбое сети или схемы; решение о деградации за вызывающим
func (s *SpeciesNet) Classify(ctx context.Context, image []byte) (*models.SpeciesIdentification, error) {
	body, contentType, err := multipartImage(image)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+predictPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier responded with status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier response: %w", err)
	}

	label, score, err := parsePrediction(raw)
	if err != nil {
		s.logger.WithError(err).WithField("component", "classifier").Warn("Classifier response rejected")
		return nil, err
	}
	return s.Normalize(label, score), nil
}

// parsePrediction строго проверяет схему ответа
func parsePrediction(raw []byte) (string, float64, error) {
	var parsed predictResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if parsed.Predictions == nil || len(parsed.Predictions.Predictions) == 0 {
		return "", 0, fmt.Errorf("%w: no predictions", ErrUnexpectedResponse)
	}
	first := parsed.Predictions.Predictions[0]
	if first.Prediction == nil || first.PredictionScore == nil {
		return "", 0, fmt.Errorf("%w: prediction or score missing", ErrUnexpectedResponse)
	}
	if *first.PredictionScore < 0 || *first.PredictionScore > 1 {
		return "", 0, fmt.Errorf("%w: score %v out of range", ErrUnexpectedResponse, *first.PredictionScore)
	}
	return CommonName(*first.Prediction), *first.PredictionScore, nil
}

// CommonName берёт последний сегмент таксономии "uuid;class;order;...;common name"
func CommonName(taxonomy string) string {
	parts := strings.Split(taxonomy, ";")
	return strings.TrimSpace(parts[len(parts)-1])
}

// Normalize помечает общие метки и низкую уверенность как неопределённый вид
func (s *SpeciesNet) Normalize(label string, confidence float64) *models.SpeciesIdentification {
	_, generic := genericLabels[strings.ToLower(label)]
	if label == "" || generic || confidence < s.minConfidence {
		return &models.SpeciesIdentification{
			Available:    true,
			Confidence:   confidence,
			Unidentified: true,
			Message:      UnidentifiedMessage,
		}
	}
	return &models.SpeciesIdentification{
		Available:  true,
		Label:      label,
		Confidence: confidence,
	}
}

func multipartImage(image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("failed to write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
