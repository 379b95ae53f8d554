package models

import (
	"math"
	"time"
)

// MaxPhotoURLs ограничивает количество фотографий в одном отчёте
const MaxPhotoURLs = 5

// IncidentType - значение из формы заявителя; набор значений задаёт форма, сервер его не ограничивает
type IncidentType string

const (
	IncidentInjured IncidentType = "injured"
	// IncidentTypeOther сопровождается необязательным описанием в incidentTypeOther
	IncidentTypeOther IncidentType = "others"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityUrgent   Severity = "urgent"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// PriorityFor выводит приоритет из серьёзности инцидента
func PriorityFor(severity Severity) Priority {
	switch severity {
	case SeverityUrgent:
		return PriorityHigh
	case SeverityModerate:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// IsUrgentSeverity true только для "urgent"
func IsUrgentSeverity(severity Severity) bool {
	return severity == SeverityUrgent
}

type Location struct {
	Address    string   `json:"address" firestore:"address" bson:"address"`
	PostalCode string   `json:"postalCode" firestore:"postalCode" bson:"postalCode"`
	Lat        *float64 `json:"lat,omitempty" firestore:"lat,omitempty" bson:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty" firestore:"lng,omitempty" bson:"lng,omitempty"`
}

type Assessment struct {
	IsMovingNormally string `json:"isMovingNormally" firestore:"isMovingNormally" bson:"isMovingNormally"`
}

// Report - документ инцидента в хранилище
type Report struct {
	ID                string       `json:"id" firestore:"-" bson:"-"`
	ReportCode        string       `json:"reportCode" firestore:"reportId" bson:"reportId"`
	ReporterID        *string      `json:"reporterId" firestore:"reporterId" bson:"reporterId"`
	IncidentType      IncidentType `json:"incidentType" firestore:"incidentType" bson:"incidentType"`
	IncidentTypeOther string       `json:"incidentTypeOther,omitempty" firestore:"incidentTypeOther" bson:"incidentTypeOther"`
	Severity          Severity     `json:"severity" firestore:"severity" bson:"severity"`
	Description       string       `json:"description" firestore:"description" bson:"description"`
	Location          Location     `json:"location" firestore:"location" bson:"location"`
	SightingDateTime  time.Time    `json:"sightingDateTime" firestore:"sightingDateTime" bson:"sightingDateTime"`
	SpeciesName       string       `json:"speciesName,omitempty" firestore:"speciesName" bson:"speciesName"`
	AnimalCondition   string       `json:"animalCondition,omitempty" firestore:"animalCondition" bson:"animalCondition"`
	Assessment        Assessment   `json:"assessment" firestore:"assessment" bson:"assessment"`
	PhotoURLs         []string     `json:"photoURLs" firestore:"photoURLs" bson:"photoURLs"`
	Status            Status       `json:"status" firestore:"status" bson:"status"`
	Priority          Priority     `json:"priority" firestore:"priority" bson:"priority"`
	IsUrgent          bool         `json:"isUrgent" firestore:"isUrgent" bson:"isUrgent"`
	AssignedTo        string       `json:"assignedTo,omitempty" firestore:"assignedTo" bson:"assignedTo"`
	ResolvedAt        *time.Time   `json:"resolvedAt,omitempty" firestore:"resolvedAt" bson:"resolvedAt"`
	CreatedAt         time.Time    `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

// ReportInput - поля, которые присылает заявитель при создании отчёта.
// Обязательные поля помечены тегом required, остальные опциональны.
type ReportInput struct {
	ReporterID        *string      `json:"reporterId"`
	IncidentType      IncidentType `json:"incidentType" validate:"required,max=100"`
	IncidentTypeOther string       `json:"incidentTypeOther" validate:"max=200"`
	Severity          Severity     `json:"severity" validate:"required,oneof=low moderate urgent"`
	SightingDateTime  string       `json:"sightingDateTime" validate:"required"`
	Description       string       `json:"description" validate:"required,max=5000"`
	IsMovingNormally  string       `json:"isMovingNormally" validate:"required,oneof=yes no unsure"`
	Location          string       `json:"location"`
	SpeciesName       string       `json:"speciesName" validate:"max=200"`
	AnimalCondition   string       `json:"animalCondition" validate:"max=1000"`
	PhotoURLs         []string     `json:"photoURLs"`
}

// earthRadiusKm - средний радиус Земли для формулы гаверсинуса
const earthRadiusKm = 6371.0

// GeoRadius - круг поиска на карте
type GeoRadius struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// ReportFilter - необязательные фильтры для списка отчётов.
// Хранилища применяют Status и Priority, Near проверяется в Matches.
type ReportFilter struct {
	Status   Status
	Priority Priority
	Near     *GeoRadius
}

// Matches проверяет отчёт на соответствие фильтру.
// При заданном Near отчёты без координат не подходят.
func (f ReportFilter) Matches(r *Report) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Priority != "" && r.Priority != f.Priority {
		return false
	}
	if f.Near != nil {
		if r.Location.Lat == nil || r.Location.Lng == nil {
			return false
		}
		if DistanceKm(f.Near.Lat, f.Near.Lng, *r.Location.Lat, *r.Location.Lng) > f.Near.RadiusKm {
			return false
		}
	}
	return true
}

// DistanceKm - расстояние по большому кругу между двумя точками
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// CreatedReport - идентификаторы, возвращаемые после создания
type CreatedReport struct {
	ID         string    `json:"reportId"`
	ReportCode string    `json:"reportCode"`
	Status     Status    `json:"status"`
	Priority   Priority  `json:"priority"`
	IsUrgent   bool      `json:"isUrgent"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TruncatePhotoURLs оставляет первые MaxPhotoURLs адресов, сохраняя порядок
func TruncatePhotoURLs(urls []string) []string {
	if len(urls) > MaxPhotoURLs {
		urls = urls[:MaxPhotoURLs]
	}
	out := make([]string, len(urls))
	copy(out, urls)
	return out
}
