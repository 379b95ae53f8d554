// Package geocode нормализует адрес заявителя и извлекает почтовый индекс.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/observability"
	"github.com/shenikar/critter_connect/internal/service"
	"github.com/sirupsen/logrus"
)

// postalCodePattern - шесть цифр подряд, опционально с буквой страны
var postalCodePattern = regexp.MustCompile(`(?i)\b(?:[A-Z]\s*)?(\d{6})\b`)

// postalCodeKeys - провайдеры называют поле по-разному
var postalCodeKeys = []string{"postcode", "postal_code", "postalCode", "zip"}

// Options - параметры провайдера геокодирования
type Options struct {
	BaseURL string
	APIKey  string
	Country string
	Prefix  string
	Timeout time.Duration
}

// Resolver обращается к OpenCage, при неудаче ищет индекс регуляркой
type Resolver struct {
	httpClient *http.Client
	opts       Options
	logger     *logrus.Logger
}

func NewResolver(opts Options, logger *logrus.Logger) *Resolver {
	return &Resolver{
		httpClient: observability.InstrumentClient(&http.Client{Timeout: opts.Timeout}),
		opts:       opts,
		logger:     logger,
	}
}

type openCageResponse struct {
	Results []struct {
		Formatted  string         `json:"formatted"`
		Components map[string]any `json:"components"`
		Geometry   *struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
}

// match - первый результат провайдера
type match struct {
	formatted string
	postal    string
	lat, lng  *float64
}

// Resolve возвращает индекс и адрес; service.ErrUnresolvedLocation, если индекс не найден
func (r *Resolver) Resolve(ctx context.Context, address string) (*models.ResolvedLocation, error) {
	log := r.logger.WithFields(logrus.Fields{
		"component": "geocode",
		"method":    "Resolve",
	})
	address = strings.TrimSpace(address)

	englishAddress := address
	var found match
	if r.opts.APIKey != "" {
		m, err := r.lookup(ctx, address)
		found = m
		if m.formatted != "" {
			englishAddress = m.formatted
		}
		switch {
		case err != nil:
			log.WithError(err).Warn("Geocoding provider failed, falling back to regex")
		case m.postal != "":
			observability.GeocodeResults.WithLabelValues("provider").Inc()
			return &models.ResolvedLocation{
				PostalCode:     FormatPostalCode(r.opts.Prefix, m.postal),
				EnglishAddress: englishAddress,
				Lat:            m.lat,
				Lng:            m.lng,
			}, nil
		default:
			log.Debug("Provider returned no postal code, falling back to regex")
		}
	}

	for _, text := range []string{address, englishAddress} {
		if code := ExtractPostalCode(text); code != "" {
			observability.GeocodeResults.WithLabelValues("regex").Inc()
			return &models.ResolvedLocation{
				PostalCode:     FormatPostalCode(r.opts.Prefix, code),
				EnglishAddress: englishAddress,
				Lat:            found.lat,
				Lng:            found.lng,
			}, nil
		}
	}

	observability.GeocodeResults.WithLabelValues("unresolved").Inc()
	log.Warn("Could not resolve postal code")
	return nil, service.ErrUnresolvedLocation
}

func (r *Resolver) lookup(ctx context.Context, address string) (match, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("key", r.opts.APIKey)
	q.Set("language", "en")
	q.Set("limit", "1")
	q.Set("no_annotations", "1")
	if r.opts.Country != "" {
		q.Set("countrycode", r.opts.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return match{}, fmt.Errorf("failed to create geocode request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return match{}, fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return match{}, fmt.Errorf("geocoder responded with status %d", resp.StatusCode)
	}

	var body openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return match{}, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(body.Results) == 0 {
		return match{}, nil
	}

	result := body.Results[0]
	m := match{formatted: result.Formatted}
	if g := result.Geometry; g != nil {
		lat, lng := g.Lat, g.Lng
		m.lat, m.lng = &lat, &lng
	}
	for _, key := range postalCodeKeys {
		if v, ok := result.Components[key]; ok {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				m.postal = s
				break
			}
		}
	}
	return m, nil
}

// ExtractPostalCode находит первые шесть цифр индекса в тексте
func ExtractPostalCode(text string) string {
	m := postalCodePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// FormatPostalCode приводит индекс к виду <prefix><цифры>; повторное применение ничего не меняет
func FormatPostalCode(prefix, code string) string {
	code = strings.ToUpper(strings.Join(strings.Fields(code), ""))
	if code == "" {
		return ""
	}
	prefix = strings.ToUpper(prefix)
	return prefix + strings.TrimPrefix(code, prefix)
}
