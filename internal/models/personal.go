package models

import "time"

// PersonalInfo holds contact and residence details. At most one row per user.
// The home address is encrypted at rest.
type PersonalInfo struct {
	ID                string
	UserID            string
	Phone             string
	PhoneCountryCode  string
	Email             string
	HomeAddress       string
	Occupation        string
	ResidenceCountry  string
	ResidenceProvince string
	Gender            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
