package v1

import (
	"time"
)

// Response - общий конверт ответа API
// @Description Общий конверт ответа API
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreateReportRequest DTO для подачи отчёта
// @Description DTO для подачи отчёта. Обязательные поля проверяет сервис, чтобы вернуть их полный список.
type CreateReportRequest struct {
	ReporterID        *string  `json:"reporterId,omitempty"`
	IncidentType      string   `json:"incidentType" example:"injured"`
	IncidentTypeOther string   `json:"incidentTypeOther,omitempty"`
	Severity          string   `json:"severity" example:"moderate"`
	SightingDateTime  string   `json:"sightingDateTime" example:"2025-06-01T08:30"`
	Description       string   `json:"description" example:"Otter limping near the canal"`
	IsMovingNormally  string   `json:"isMovingNormally" example:"no"`
	Location          string   `json:"location" example:"123 Orchard Road, Singapore 238890"`
	SpeciesName       string   `json:"speciesName,omitempty"`
	AnimalCondition   string   `json:"animalCondition,omitempty"`
	PhotoURLs         []string `json:"photoURLs,omitempty"`
}

// UpdateStatusRequest DTO для смены статуса
// @Description DTO для смены статуса
type UpdateStatusRequest struct {
	Status     string  `json:"status" validate:"required" example:"in-progress"`
	AssignedTo *string `json:"assignedTo,omitempty" validate:"omitempty,max=200"`
}

// UpdateFieldsRequest DTO для частичного обновления полей. Неизвестные ключи отклоняются.
// @Description DTO для частичного обновления полей
type UpdateFieldsRequest struct {
	IncidentType      *string  `json:"incidentType,omitempty"`
	IncidentTypeOther *string  `json:"incidentTypeOther,omitempty"`
	Severity          *string  `json:"severity,omitempty"`
	Description       *string  `json:"description,omitempty"`
	SpeciesName       *string  `json:"speciesName,omitempty"`
	AnimalCondition   *string  `json:"animalCondition,omitempty"`
	IsMovingNormally  *string  `json:"isMovingNormally,omitempty"`
	PhotoURLs         []string `json:"photoURLs,omitempty"`
	AssignedTo        *string  `json:"assignedTo,omitempty"`
}

// ImageRequest DTO с изображением в виде base64 data-URL
// @Description DTO с изображением в виде base64 data-URL
type ImageRequest struct {
	ImageData string `json:"imageData" validate:"required" example:"data:image/jpeg;base64,/9j/4AAQ..."`
}

// LocationResponse DTO адреса отчёта
type LocationResponse struct {
	Address    string   `json:"address"`
	PostalCode string   `json:"postalCode"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
}

// ReportResponse DTO для ответа с отчётом
// @Description DTO для ответа с отчётом
type ReportResponse struct {
	ID                string           `json:"id"`
	ReportCode        string           `json:"reportCode"`
	ReporterID        *string          `json:"reporterId"`
	IncidentType      string           `json:"incidentType"`
	IncidentTypeOther string           `json:"incidentTypeOther,omitempty"`
	Severity          string           `json:"severity"`
	Description       string           `json:"description"`
	Location          LocationResponse `json:"location"`
	SightingDateTime  time.Time        `json:"sightingDateTime"`
	SpeciesName       string           `json:"speciesName,omitempty"`
	AnimalCondition   string           `json:"animalCondition,omitempty"`
	IsMovingNormally  string           `json:"isMovingNormally"`
	PhotoURLs         []string         `json:"photoURLs"`
	Status            string           `json:"status"`
	Priority          string           `json:"priority"`
	IsUrgent          bool             `json:"isUrgent"`
	AssignedTo        string           `json:"assignedTo,omitempty"`
	ResolvedAt        *time.Time       `json:"resolvedAt,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// CreatedReportResponse DTO идентификаторов нового отчёта
// @Description DTO идентификаторов нового отчёта
type CreatedReportResponse struct {
	ReportID   string    `json:"reportId"`
	ReportCode string    `json:"reportCode"`
	Status     string    `json:"status"`
	Priority   string    `json:"priority"`
	IsUrgent   bool      `json:"isUrgent"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StoredImageResponse DTO принятого изображения
// @Description DTO принятого изображения
type StoredImageResponse struct {
	ImageURL string `json:"imageURL"`
	Filename string `json:"filename"`
	Note     string `json:"note,omitempty"`
}

// SpeciesPrediction - одна метка классификатора
type SpeciesPrediction struct {
	ClassName  string  `json:"className"`
	Confidence float64 `json:"confidence"`
}

// SpeciesResponse DTO результата определения вида
// @Description DTO результата определения вида. speciesIdentified=false означает ручной ввод.
type SpeciesResponse struct {
	Predictions       []SpeciesPrediction `json:"predictions"`
	SpeciesIdentified bool                `json:"speciesIdentified"`
	Message           string              `json:"message,omitempty"`
}
