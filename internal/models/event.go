package models

import "time"

type EventType string

const (
	EventReportCreated    EventType = "report-created"
	EventReportUpdated    EventType = "report-updated"
	EventReportDeleted    EventType = "report-deleted"
	EventPresenceChanged  EventType = "presence-count-changed"
	EventReportAccepted   EventType = "report-accepted"
	EventVolunteerLocated EventType = "volunteer-location"
)

// Event - доменное событие жизненного цикла отчёта
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type ReportDeletedPayload struct {
	ID         string `json:"id"`
	ReportCode string `json:"reportCode,omitempty"`
}

type PresencePayload struct {
	Count int `json:"count"`
}

type ReportAcceptedPayload struct {
	ReportID      string `json:"reportId"`
	VolunteerID   string `json:"volunteerId"`
	VolunteerName string `json:"volunteerName,omitempty"`
}

type VolunteerLocationPayload struct {
	SessionID string  `json:"sessionId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// UrgentReportNotification уходит во внешний вебхук для срочных отчётов
type UrgentReportNotification struct {
	ReportID   string    `json:"reportId"`
	ReportCode string    `json:"reportCode"`
	Severity   Severity  `json:"severity"`
	Address    string    `json:"address"`
	PostalCode string    `json:"postalCode"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ResolvedLocation - результат геокодирования
type ResolvedLocation struct {
	PostalCode     string   `json:"postalCode"`
	EnglishAddress string   `json:"englishAddress"`
	Lat            *float64 `json:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty"`
}
