package models

import "time"

// ReportPatch - частичное обновление полей отчёта. nil означает "не менять".
// Код отчёта, статус, приоритет и временные метки через патч не меняются.
type ReportPatch struct {
	IncidentType      *IncidentType `json:"incidentType" validate:"omitempty,max=100"`
	IncidentTypeOther *string       `json:"incidentTypeOther" validate:"omitempty,max=200"`
	Severity          *Severity     `json:"severity" validate:"omitempty,oneof=low moderate urgent"`
	Description       *string       `json:"description" validate:"omitempty,min=1,max=5000"`
	SpeciesName       *string       `json:"speciesName" validate:"omitempty,max=200"`
	AnimalCondition   *string       `json:"animalCondition" validate:"omitempty,max=1000"`
	IsMovingNormally  *string       `json:"isMovingNormally" validate:"omitempty,oneof=yes no unsure"`
	PhotoURLs         []string      `json:"photoURLs"`
	AssignedTo        *string       `json:"assignedTo" validate:"omitempty,max=200"`
}

// IsEmpty true, если в патче нет ни одного поля
func (p ReportPatch) IsEmpty() bool {
	return p.IncidentType == nil &&
		p.IncidentTypeOther == nil &&
		p.Severity == nil &&
		p.Description == nil &&
		p.SpeciesName == nil &&
		p.AnimalCondition == nil &&
		p.IsMovingNormally == nil &&
		p.PhotoURLs == nil &&
		p.AssignedTo == nil
}

// FieldUpdate - одна пара путь/значение в терминах имён полей документа
type FieldUpdate struct {
	Path  string
	Value any
}

// Updates раскладывает патч на пути документа. Изменение серьёзности
// пересчитывает priority и isUrgent, updatedAt добавляется всегда.
func (p ReportPatch) Updates(now time.Time) []FieldUpdate {
	var updates []FieldUpdate
	if p.IncidentType != nil {
		updates = append(updates, FieldUpdate{Path: "incidentType", Value: string(*p.IncidentType)})
	}
	if p.IncidentTypeOther != nil {
		updates = append(updates, FieldUpdate{Path: "incidentTypeOther", Value: *p.IncidentTypeOther})
	}
	if p.Severity != nil {
		updates = append(updates,
			FieldUpdate{Path: "severity", Value: string(*p.Severity)},
			FieldUpdate{Path: "priority", Value: string(PriorityFor(*p.Severity))},
			FieldUpdate{Path: "isUrgent", Value: IsUrgentSeverity(*p.Severity)},
		)
	}
	if p.Description != nil {
		updates = append(updates, FieldUpdate{Path: "description", Value: *p.Description})
	}
	if p.SpeciesName != nil {
		updates = append(updates, FieldUpdate{Path: "speciesName", Value: *p.SpeciesName})
	}
	if p.AnimalCondition != nil {
		updates = append(updates, FieldUpdate{Path: "animalCondition", Value: *p.AnimalCondition})
	}
	if p.IsMovingNormally != nil {
		updates = append(updates, FieldUpdate{Path: "assessment", Value: Assessment{IsMovingNormally: *p.IsMovingNormally}})
	}
	if p.PhotoURLs != nil {
		updates = append(updates, FieldUpdate{Path: "photoURLs", Value: TruncatePhotoURLs(p.PhotoURLs)})
	}
	if p.AssignedTo != nil {
		updates = append(updates, FieldUpdate{Path: "assignedTo", Value: *p.AssignedTo})
	}
	return append(updates, FieldUpdate{Path: "updatedAt", Value: now})
}

// Updates раскладывает смену статуса на пути документа
func (u StatusUpdate) Updates(now time.Time) []FieldUpdate {
	updates := []FieldUpdate{{Path: "status", Value: string(u.Status)}}
	if u.AssignedTo != nil {
		updates = append(updates, FieldUpdate{Path: "assignedTo", Value: *u.AssignedTo})
	}
	if u.Status == StatusResolved {
		updates = append(updates, FieldUpdate{Path: "resolvedAt", Value: now})
	}
	return append(updates, FieldUpdate{Path: "updatedAt", Value: now})
}

// Apply применяет пути документа к отчёту в памяти. Неизвестные пути игнорируются.
func Apply(r *Report, updates []FieldUpdate) {
	for _, u := range updates {
		switch u.Path {
		case "incidentType":
			r.IncidentType = IncidentType(u.Value.(string))
		case "incidentTypeOther":
			r.IncidentTypeOther = u.Value.(string)
		case "severity":
			r.Severity = Severity(u.Value.(string))
		case "priority":
			r.Priority = Priority(u.Value.(string))
		case "isUrgent":
			r.IsUrgent = u.Value.(bool)
		case "description":
			r.Description = u.Value.(string)
		case "speciesName":
			r.SpeciesName = u.Value.(string)
		case "animalCondition":
			r.AnimalCondition = u.Value.(string)
		case "assessment":
			r.Assessment = u.Value.(Assessment)
		case "photoURLs":
			r.PhotoURLs = TruncatePhotoURLs(u.Value.([]string))
		case "assignedTo":
			r.AssignedTo = u.Value.(string)
		case "status":
			r.Status = Status(u.Value.(string))
		case "resolvedAt":
			t := u.Value.(time.Time)
			r.ResolvedAt = &t
		case "updatedAt":
			r.UpdatedAt = u.Value.(time.Time)
		}
	}
}
