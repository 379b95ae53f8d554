package models

// SpeciesIdentification - нормализованный ответ классификатора.
// Available=false означает, что сервис недоступен и вид вводится вручную.
type SpeciesIdentification struct {
	Available    bool    `json:"available"`
	Label        string  `json:"label,omitempty"`
	Confidence   float64 `json:"confidence"`
	Unidentified bool    `json:"unidentified,omitempty"`
	Message      string  `json:"message,omitempty"`
}

// Identified true, если метке можно доверять
func (s SpeciesIdentification) Identified() bool {
	return s.Available && !s.Unidentified && s.Label != ""
}
