package models

import "time"

// SectionMetrics counts filled vs. total fields for one section of an entry.
type SectionMetrics struct {
	Filled int `json:"filled"`
	Total  int `json:"total"`
}

// CompletionMetrics summarizes how complete an entry's data is, per section.
// Stored metrics are canonical; display summaries are derived from them.
type CompletionMetrics struct {
	Passport SectionMetrics `json:"passport"`
	Personal SectionMetrics `json:"personal"`
	Funds    SectionMetrics `json:"funds"`
	Travel   SectionMetrics `json:"travel"`
}

// TotalPercent returns the overall completion percentage across all sections.
func (m CompletionMetrics) TotalPercent() int {
	filled := m.Passport.Filled + m.Personal.Filled + m.Funds.Filled + m.Travel.Filled
	total := m.Passport.Total + m.Personal.Total + m.Funds.Total + m.Travel.Total
	if total == 0 {
		return 0
	}
	return filled * 100 / total
}

// EntryInfo is the root record for one trip/destination entry. It references
// the supporting records by id and carries the completion summary.
type EntryInfo struct {
	ID             string
	UserID         string
	DestinationID  string
	TripID         string
	Status         string
	Metrics        CompletionMetrics
	TravelInfoID   string
	PassportID     string
	PersonalInfoID string
	FundItemIDs    []string
	UpdatedAt      time.Time
}
