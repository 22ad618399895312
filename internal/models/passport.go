// Package models defines the persisted data model of the travel-document
// data core. Sensitive fields are encrypted at the store boundary; the
// structs here always hold plaintext.
package models

import "time"

// Passport holds a traveller's passport details. Number, full name, date of
// birth and nationality are encrypted at rest.
type Passport struct {
	ID             string
	UserID         string
	PassportNumber string
	FullName       string
	DateOfBirth    string
	Nationality    string
	Gender         string
	ExpiryDate     string
	IssueDate      string
	IssuePlace     string
	PhotoURI       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
