package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/service"
	"github.com/sirupsen/logrus"
)

// DTOToReportInput преобразует тело запроса в вход сервиса
func DTOToReportInput(dto CreateReportRequest) models.ReportInput {
	return models.ReportInput{
		ReporterID:        dto.ReporterID,
		IncidentType:      models.IncidentType(dto.IncidentType),
		IncidentTypeOther: dto.IncidentTypeOther,
		Severity:          models.Severity(dto.Severity),
		SightingDateTime:  dto.SightingDateTime,
		Description:       dto.Description,
		IsMovingNormally:  dto.IsMovingNormally,
		Location:          dto.Location,
		SpeciesName:       dto.SpeciesName,
		AnimalCondition:   dto.AnimalCondition,
		PhotoURLs:         dto.PhotoURLs,
	}
}

// DTOToReportPatch переносит только присланные поля
func DTOToReportPatch(dto UpdateFieldsRequest) models.ReportPatch {
	patch := models.ReportPatch{
		IncidentTypeOther: dto.IncidentTypeOther,
		Description:       dto.Description,
		SpeciesName:       dto.SpeciesName,
		AnimalCondition:   dto.AnimalCondition,
		IsMovingNormally:  dto.IsMovingNormally,
		PhotoURLs:         dto.PhotoURLs,
		AssignedTo:        dto.AssignedTo,
	}
	if dto.IncidentType != nil {
		t := models.IncidentType(*dto.IncidentType)
		patch.IncidentType = &t
	}
	if dto.Severity != nil {
		s := models.Severity(*dto.Severity)
		patch.Severity = &s
	}
	return patch
}

// ModelToReportResponse преобразует доменную модель в DTO для ответа
func ModelToReportResponse(model *models.Report) *ReportResponse {
	return &ReportResponse{
		ID:                model.ID,
		ReportCode:        model.ReportCode,
		ReporterID:        model.ReporterID,
		IncidentType:      string(model.IncidentType),
		IncidentTypeOther: model.IncidentTypeOther,
		Severity:          string(model.Severity),
		Description:       model.Description,
		Location: LocationResponse{
			Address:    model.Location.Address,
			PostalCode: model.Location.PostalCode,
			Lat:        model.Location.Lat,
			Lng:        model.Location.Lng,
		},
		SightingDateTime: model.SightingDateTime,
		SpeciesName:      model.SpeciesName,
		AnimalCondition:  model.AnimalCondition,
		IsMovingNormally: model.Assessment.IsMovingNormally,
		PhotoURLs:        model.PhotoURLs,
		Status:           string(model.Status),
		Priority:         string(model.Priority),
		IsUrgent:         model.IsUrgent,
		AssignedTo:       model.AssignedTo,
		ResolvedAt:       model.ResolvedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// ModelsToReportResponses преобразует слайс моделей в слайс DTO
func ModelsToReportResponses(models []*models.Report) []*ReportResponse {
	responses := make([]*ReportResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToReportResponse(model)
	}
	return responses
}

func ModelToCreatedReportResponse(model *models.CreatedReport) *CreatedReportResponse {
	return &CreatedReportResponse{
		ReportID:   model.ID,
		ReportCode: model.ReportCode,
		Status:     string(model.Status),
		Priority:   string(model.Priority),
		IsUrgent:   model.IsUrgent,
		CreatedAt:  model.CreatedAt,
	}
}

func ModelToStoredImageResponse(model *models.StoredImage) *StoredImageResponse {
	return &StoredImageResponse{
		ImageURL: model.URL,
		Filename: model.Filename,
		Note:     model.Note,
	}
}

// ModelToSpeciesResponse: при недоступном классификаторе predictions = null
func ModelToSpeciesResponse(model *models.SpeciesIdentification) *SpeciesResponse {
	resp := &SpeciesResponse{
		SpeciesIdentified: model.Identified(),
		Message:           model.Message,
	}
	if model.Available {
		resp.Predictions = []SpeciesPrediction{{ClassName: model.Label, Confidence: model.Confidence}}
	}
	return resp
}

// errorStatus сопоставляет ошибку сервиса с HTTP-кодом и сообщением для клиента
func errorStatus(err error, notFound, fallback string) (int, string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, notFound
	default:
		return http.StatusInternalServerError, fallback
	}
}

// respondError пишет конверт с ошибкой; детали 500 видны только вне production
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error, notFound, fallback string) {
	code, message := errorStatus(err, notFound, fallback)
	resp := Response{Success: false, Message: message}

	if code == http.StatusInternalServerError {
		log.WithError(err).Error(fallback)
		resp.Error = "Internal server error"
		if !h.cfg.IsProduction() {
			resp.Error = err.Error()
		}
	} else {
		log.WithError(err).Warn(message)
	}
	c.JSON(code, resp)
}

func respondOK(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Success: true, Message: message, Data: data})
}
