package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/critter_connect/internal/config"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/service"
	"github.com/shenikar/critter_connect/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testAPIKey = "test-api-key"

var apiKeyHeader = map[string]string{"X-API-Key": testAPIKey}

type testDeps struct {
	reports *mocks.MockReportService
	media   *mocks.MockMediaService
	species *mocks.MockSpeciesService
	router  *gin.Engine
}

// newTestHandler создает Handler с мокированными сервисами
func newTestHandler(t *testing.T, env string) *testDeps {
	ctrl := gomock.NewController(t)
	deps := &testDeps{
		reports: mocks.NewMockReportService(ctrl),
		media:   mocks.NewMockMediaService(ctrl),
		species: mocks.NewMockSpeciesService(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		Env:            env,
		APIKeys:        []string{testAPIKey},
		AllowedOrigins: []string{"http://localhost:5173"},
	}

	handler := NewHandler(deps.reports, deps.media, deps.species, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	deps.router = NewRouter(handler)
	return deps
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// decodeResponse разбирает конверт; data раскладывается в dst, если он задан
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, dst any) Response {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	if dst != nil {
		require.NoError(t, json.Unmarshal(raw.Data, dst))
	}
	return Response{Success: raw.Success, Message: raw.Message, Error: raw.Error}
}

func validCreateRequest() CreateReportRequest {
	return CreateReportRequest{
		IncidentType:     "injured",
		Severity:         "urgent",
		SightingDateTime: "2025-06-01T08:30",
		Description:      "Otter limping near the canal",
		IsMovingNormally: "no",
		Location:         "123 Orchard Road, Singapore 238890",
		PhotoURLs:        []string{"https://img.example/1.jpg"},
	}
}

func sampleReport() *models.Report {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return &models.Report{
		ID:           "doc-1",
		ReportCode:   "WR-LX3K9Q-4821",
		IncidentType: models.IncidentInjured,
		Severity:     models.SeverityUrgent,
		Description:  "Otter limping near the canal",
		Location:     models.Location{Address: "123 Orchard Road, Singapore 238890", PostalCode: "S238890"},
		Assessment:   models.Assessment{IsMovingNormally: "no"},
		PhotoURLs:    []string{"https://img.example/1.jpg"},
		Status:       models.StatusPending,
		Priority:     models.PriorityHigh,
		IsUrgent:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateReport_Success(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	createdAt := time.Now().UTC().Truncate(time.Second)

	deps.reports.EXPECT().
		CreateReport(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input models.ReportInput) (*models.CreatedReport, error) {
			assert.Equal(t, models.IncidentInjured, input.IncidentType)
			assert.Equal(t, models.SeverityUrgent, input.Severity)
			assert.Equal(t, "123 Orchard Road, Singapore 238890", input.Location)
			return &models.CreatedReport{
				ID:         "doc-1",
				ReportCode: "WR-LX3K9Q-4821",
				Status:     models.StatusPending,
				Priority:   models.PriorityHigh,
				IsUrgent:   true,
				CreatedAt:  createdAt,
			}, nil
		}).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports", jsonBody(t, validCreateRequest()))

	assert.Equal(t, http.StatusCreated, w.Code)
	var created CreatedReportResponse
	resp := decodeResponse(t, w, &created)
	assert.True(t, resp.Success)
	assert.Equal(t, "Report submitted successfully", resp.Message)
	assert.Equal(t, "doc-1", created.ReportID)
	assert.Equal(t, "high", created.Priority)
	assert.True(t, created.IsUrgent)
	assert.True(t, createdAt.Equal(created.CreatedAt))
}

func TestCreateReport_InvalidJSON(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)

	deps.reports.EXPECT().CreateReport(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports", bytes.NewBufferString(`{"incidentType": "injured"`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, msgInvalidBody, resp.Message)
}

func TestCreateReport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		err         error
		wantCode    int
		wantMessage string
		wantError   string
	}{
		{
			name:        "missing fields",
			err:         service.NewValidationError("Missing required fields: severity, description"),
			wantCode:    http.StatusBadRequest,
			wantMessage: "Missing required fields: severity, description",
		},
		{
			name:        "unresolved location",
			err:         fmt.Errorf("%w: provider down", service.ErrUnresolvedLocation),
			wantCode:    http.StatusBadRequest,
			wantMessage: "Could not resolve a postal code from the location",
		},
		{
			name:        "internal error shows detail outside production",
			env:         config.EnvDevelopment,
			err:         errors.New("firestore unavailable"),
			wantCode:    http.StatusInternalServerError,
			wantMessage: "Failed to create report",
			wantError:   "firestore unavailable",
		},
		{
			name:        "internal error hides detail in production",
			env:         config.EnvProduction,
			err:         errors.New("firestore unavailable"),
			wantCode:    http.StatusInternalServerError,
			wantMessage: "Failed to create report",
			wantError:   "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestHandler(t, tt.env)
			deps.reports.EXPECT().CreateReport(gomock.Any(), gomock.Any()).Return(nil, tt.err).Times(1)

			w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports", jsonBody(t, validCreateRequest()))

			assert.Equal(t, tt.wantCode, w.Code)
			resp := decodeResponse(t, w, nil)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestListReports_Filter(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	second := sampleReport()
	second.ID = "doc-2"

	deps.reports.EXPECT().
		ListReports(gomock.Any(), models.ReportFilter{Status: models.StatusPending, Priority: models.PriorityHigh}).
		Return([]*models.Report{sampleReport(), second}, nil).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports?status=pending&priority=high", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var reports []ReportResponse
	decodeResponse(t, w, &reports)
	require.Len(t, reports, 2)
	assert.Equal(t, "doc-1", reports[0].ID)
	assert.Equal(t, "S238890", reports[0].Location.PostalCode)
}

func TestListReports_RadiusFilter(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	lat, lng := 1.3048, 103.8318
	report := sampleReport()
	report.Location.Lat, report.Location.Lng = &lat, &lng

	deps.reports.EXPECT().
		ListReports(gomock.Any(), models.ReportFilter{
			Status: models.StatusPending,
			Near:   &models.GeoRadius{Lat: 1.284, Lng: 103.8515, RadiusKm: 5},
		}).
		Return([]*models.Report{report}, nil).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports?status=pending&lat=1.284&lng=103.8515&radius=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var reports []ReportResponse
	decodeResponse(t, w, &reports)
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Location.Lat)
	assert.Equal(t, lat, *reports[0].Location.Lat)
}

func TestListReports_MapRouteAcceptsUrgency(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().
		ListReports(gomock.Any(), models.ReportFilter{
			Priority: models.PriorityHigh,
			Near:     &models.GeoRadius{Lat: 1.35, Lng: 103.8, RadiusKm: 2.5},
		}).
		Return([]*models.Report{}, nil).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/maps/getByGeoSpatial?urgency=high&lat=1.35&lng=103.8&radius=2.5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListReports_InvalidRadius(t *testing.T) {
	cases := map[string]string{
		"partial circle":   "lat=1.3&lng=103.8",
		"non-numeric lat":  "lat=north&lng=103.8&radius=1",
		"lat out of range": "lat=91&lng=103.8&radius=1",
		"zero radius":      "lat=1.3&lng=103.8&radius=0",
	}
	for name, query := range cases {
		t.Run(name, func(t *testing.T) {
			deps := newTestHandler(t, config.EnvDevelopment)
			deps.reports.EXPECT().ListReports(gomock.Any(), gomock.Any()).Times(0)

			w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports?"+query, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestListReports_InvalidFilter(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().ListReports(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports?status=archived", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeResponse(t, w, nil).Message, "Invalid status filter")
}

func TestGetReport(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().GetReport(gomock.Any(), "doc-1").Return(sampleReport(), nil).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports/doc-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var report ReportResponse
	decodeResponse(t, w, &report)
	assert.Equal(t, "WR-LX3K9Q-4821", report.ReportCode)
	assert.Equal(t, "no", report.IsMovingNormally)
}

func TestGetReport_NotFound(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().
		GetReport(gomock.Any(), "missing").
		Return(nil, fmt.Errorf("report with id missing: %w", service.ErrNotFound)).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgReportNotFound, decodeResponse(t, w, nil).Message)
}

func TestGetReportByCode(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().GetReportByCode(gomock.Any(), "WR-LX3K9Q-4821").Return(sampleReport(), nil).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports/by-code/WR-LX3K9Q-4821", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var report ReportResponse
	decodeResponse(t, w, &report)
	assert.Equal(t, "doc-1", report.ID)
}

func TestUpdateStatus_Success(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	volunteer := "vol-7"
	updated := sampleReport()
	updated.Status = models.StatusInProgress
	updated.AssignedTo = volunteer

	deps.reports.EXPECT().
		UpdateStatus(gomock.Any(), "doc-1", models.StatusUpdate{Status: models.StatusInProgress, AssignedTo: &volunteer}).
		Return(updated, nil).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/doc-1/status",
		jsonBody(t, UpdateStatusRequest{Status: "in-progress", AssignedTo: &volunteer}), apiKeyHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var report ReportResponse
	resp := decodeResponse(t, w, &report)
	assert.Equal(t, "Report status updated", resp.Message)
	assert.Equal(t, "in-progress", report.Status)
	assert.Equal(t, volunteer, report.AssignedTo)
}

func TestUpdateStatus_MissingStatus(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/doc-1/status", bytes.NewBufferString(`{}`), apiKeyHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Status is required", decodeResponse(t, w, nil).Message)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().
		UpdateStatus(gomock.Any(), "doc-1", gomock.Any()).
		Return(nil, service.NewValidationError("Invalid status %q (must be one of pending, in-progress, resolved, closed)", "archived")).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/doc-1/status", bytes.NewBufferString(`{"status":"archived"}`), apiKeyHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeResponse(t, w, nil).Message, `Invalid status "archived"`)
}

func TestTriageRoutes_RequireAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		url     string
		body    string
		headers map[string]string
		wantMsg string
	}{
		{name: "status without key", method: http.MethodPost, url: "/api/v1/reports/doc-1/status", body: `{"status":"closed"}`, wantMsg: "API key required"},
		{name: "fields with wrong key", method: http.MethodPost, url: "/api/v1/reports/doc-1/fields", body: `{"description":"x"}`, headers: map[string]string{"X-API-Key": "nope"}, wantMsg: "Invalid API key"},
		{name: "delete with wrong bearer", method: http.MethodDelete, url: "/api/v1/reports/doc-1", headers: map[string]string{"Authorization": "Bearer nope"}, wantMsg: "Invalid API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestHandler(t, config.EnvDevelopment)

			var body io.Reader
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			}
			w := makeRequest(deps.router, tt.method, tt.url, body, tt.headers)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantMsg, decodeResponse(t, w, nil).Message)
		})
	}
}

func TestTriageRoutes_BearerToken(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().DeleteReport(gomock.Any(), "doc-1").Return(nil).Times(1)

	w := makeRequest(deps.router, http.MethodDelete, "/api/v1/reports/doc-1", nil, map[string]string{"Authorization": "Bearer " + testAPIKey})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Report deleted", decodeResponse(t, w, nil).Message)
}

func TestUpdateFields_Success(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	updated := sampleReport()
	updated.Severity = models.SeverityLow
	updated.Priority = models.PriorityLow

	deps.reports.EXPECT().
		UpdateFields(gomock.Any(), "doc-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, patch models.ReportPatch) (*models.Report, error) {
			require.NotNil(t, patch.Severity)
			assert.Equal(t, models.SeverityLow, *patch.Severity)
			assert.Nil(t, patch.Description)
			return updated, nil
		}).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/doc-1/fields", bytes.NewBufferString(`{"severity":"low"}`), apiKeyHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var report ReportResponse
	decodeResponse(t, w, &report)
	assert.Equal(t, "low", report.Priority)
}

func TestUpdateFields_BadBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "unknown key", body: `{"status":"closed"}`, wantMsg: `Unknown field "status"`},
		{name: "empty body", body: ``, wantMsg: "No fields to update"},
		{name: "malformed", body: `{"description":`, wantMsg: msgInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestHandler(t, config.EnvDevelopment)
			deps.reports.EXPECT().UpdateFields(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

			w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/doc-1/fields", bytes.NewBufferString(tt.body), apiKeyHeader)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantMsg, decodeResponse(t, w, nil).Message)
		})
	}
}

func TestUpdateFields_EmptyPatchRejectedByService(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().
		UpdateFields(gomock.Any(), "doc-1", models.ReportPatch{}).
		Return(nil, service.NewValidationError("No fields to update")).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/doc-1/fields", bytes.NewBufferString(`{}`), apiKeyHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No fields to update", decodeResponse(t, w, nil).Message)
}

func TestDeleteReport_NotFound(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.reports.EXPECT().DeleteReport(gomock.Any(), "gone").Return(fmt.Errorf("report: %w", service.ErrNotFound)).Times(1)

	w := makeRequest(deps.router, http.MethodDelete, "/api/v1/reports/gone", nil, apiKeyHeader)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadImage(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.media.EXPECT().
		StoreImage(gomock.Any(), "data:image/png;base64,aGk=").
		Return(&models.StoredImage{URL: "https://host/api/v1/reports/images/fb-1", Filename: "fallback-fb-1.jpg", Note: "Stored as fallback due to Storage error"}, nil).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/upload-image", jsonBody(t, ImageRequest{ImageData: "data:image/png;base64,aGk="}))

	assert.Equal(t, http.StatusOK, w.Code)
	var stored StoredImageResponse
	resp := decodeResponse(t, w, &stored)
	assert.True(t, resp.Success)
	assert.Equal(t, "fallback-fb-1.jpg", stored.Filename)
	assert.NotEmpty(t, stored.Note)
}

func TestUploadImage_MissingData(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.media.EXPECT().StoreImage(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/upload-image", bytes.NewBufferString(`{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgNoImageData, decodeResponse(t, w, nil).Message)
}

func TestUploadImage_TotalFailure(t *testing.T) {
	deps := newTestHandler(t, config.EnvProduction)
	deps.media.EXPECT().
		StoreImage(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: fallback write failed", service.ErrStorageUnavailable)).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/upload-image", jsonBody(t, ImageRequest{ImageData: "data:image/png;base64,aGk="}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w, nil)
	assert.Equal(t, "Failed to upload image", resp.Message)
	assert.Equal(t, "Internal server error", resp.Error)
}

func TestGetFallbackImage(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.media.EXPECT().
		GetFallbackImage(gomock.Any(), "fb-1").
		Return(&models.ImagePayload{ContentType: "image/png", Data: []byte("png-bytes")}, nil).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports/images/fb-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000", w.Header().Get("Cache-Control"))
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestGetFallbackImage_NotFound(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.media.EXPECT().
		GetFallbackImage(gomock.Any(), "nope").
		Return(nil, fmt.Errorf("fallback image nope: %w", service.ErrNotFound)).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports/images/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgImageNotFound, decodeResponse(t, w, nil).Message)
}

func TestIdentifySpecies(t *testing.T) {
	tests := []struct {
		name           string
		result         *models.SpeciesIdentification
		wantIdentified bool
		wantPredicted  bool
	}{
		{
			name:           "identified",
			result:         &models.SpeciesIdentification{Available: true, Label: "smooth-coated otter", Confidence: 0.91},
			wantIdentified: true,
			wantPredicted:  true,
		},
		{
			name:   "classifier unavailable still succeeds",
			result: &models.SpeciesIdentification{Available: false, Message: service.UnavailableMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestHandler(t, config.EnvDevelopment)
			deps.species.EXPECT().IdentifySpecies(gomock.Any(), "data:image/jpeg;base64,aGk=").Return(tt.result, nil).Times(1)

			w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/identify-species", jsonBody(t, ImageRequest{ImageData: "data:image/jpeg;base64,aGk="}))

			assert.Equal(t, http.StatusOK, w.Code)
			var species SpeciesResponse
			resp := decodeResponse(t, w, &species)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.wantIdentified, species.SpeciesIdentified)
			assert.Equal(t, tt.wantPredicted, species.Predictions != nil)
			assert.Equal(t, tt.result.Message, species.Message)
		})
	}
}

func TestIdentifySpecies_InvalidImage(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	deps.species.EXPECT().
		IdentifySpecies(gomock.Any(), "not-an-image").
		Return(nil, service.NewValidationError("Invalid image data")).Times(1)

	w := makeRequest(deps.router, http.MethodPost, "/api/v1/reports/identify-species", jsonBody(t, ImageRequest{ImageData: "not-an-image"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestNoRoute(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/unknown", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", decodeResponse(t, w, nil).Message)
}

func TestRecovery_ReturnsGeneric500(t *testing.T) {
	deps := newTestHandler(t, config.EnvProduction)
	deps.reports.EXPECT().GetReport(gomock.Any(), "boom").DoAndReturn(func(context.Context, string) (*models.Report, error) {
		panic("nil map write")
	}).Times(1)

	w := makeRequest(deps.router, http.MethodGet, "/api/v1/reports/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w, nil)
	assert.Equal(t, "Internal server error", resp.Message)
	assert.Empty(t, resp.Error)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)

	w := makeRequest(deps.router, http.MethodOptions, "/api/v1/reports", nil, map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": http.MethodPost,
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeMux_SplitsWebSocketAndAPI(t *testing.T) {
	deps := newTestHandler(t, config.EnvDevelopment)
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux := NewServeMux(deps.router, ws)

	wsRec := httptest.NewRecorder()
	mux.ServeHTTP(wsRec, httptest.NewRequest(http.MethodGet, WebSocketPath, nil))
	assert.Equal(t, http.StatusTeapot, wsRec.Code)

	apiRec := httptest.NewRecorder()
	mux.ServeHTTP(apiRec, httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil))
	assert.Equal(t, http.StatusOK, apiRec.Code)
}
