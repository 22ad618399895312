package models

import "time"

// FlightLeg describes one direction of travel.
type FlightLeg struct {
	FlightNumber  string `json:"flightNumber,omitempty"`
	DepartureDate string `json:"departureDate,omitempty"`
	ArrivalDate   string `json:"arrivalDate,omitempty"`
	DeparturePort string `json:"departurePort,omitempty"`
	ArrivalPort   string `json:"arrivalPort,omitempty"`
}

// TravelInfo describes one planned trip to a destination. At most one active
// row per (user, destination).
type TravelInfo struct {
	ID            string
	UserID        string
	Destination   string
	Purpose       string
	ArrivalLeg    FlightLeg
	DepartureLeg  FlightLeg
	Accommodation string
	IsTransit     bool
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
