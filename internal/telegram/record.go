// Package telegram provides the data types for UAV movement telegrams.
package telegram

import "time"

// MessageType identifies the telegram kind per the movement messaging convention.
type MessageType string

const (
	TypeFPL MessageType = "FPL" // Flight plan
	TypeDEP MessageType = "DEP" // Departure
	TypeARR MessageType = "ARR" // Arrival
	TypeCHG MessageType = "CHG" // Flight plan change
	TypeCNL MessageType = "CNL" // Flight plan cancellation
	TypeDLA MessageType = "DLA" // Delay
	TypeRQS MessageType = "RQS" // Status request
	TypeRQP MessageType = "RQP" // Flight plan request
)

// knownTypes lists every telegram kind the parser recognises.
var knownTypes = map[MessageType]bool{
	TypeFPL: true, TypeDEP: true, TypeARR: true, TypeCHG: true,
	TypeCNL: true, TypeDLA: true, TypeRQS: true, TypeRQP: true,
}

// IsKnownType reports whether s is a recognised message type code.
func IsKnownType(s string) bool {
	return knownTypes[MessageType(s)]
}

// Coordinates is a WGS84 point in (longitude, latitude) order.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Record is one telegram turned into structured flight data.
// Optional fields are pointers or empty strings; RawMessage holds the
// original line untouched. ParseErrors are advisory field-level findings
// collected during extraction; they never abort parsing.
type Record struct {
	MessageType  MessageType `json:"message_type"`
	FlightID     string      `json:"flight_id"`
	AircraftType string      `json:"aircraft_type,omitempty"`
	Registration string      `json:"registration,omitempty"`

	DepartureTime *time.Time `json:"departure_time,omitempty"`
	ArrivalTime   *time.Time `json:"arrival_time,omitempty"`

	DepartureCoordinates *Coordinates `json:"departure_coordinates,omitempty"`
	ArrivalCoordinates   *Coordinates `json:"arrival_coordinates,omitempty"`

	DepartureAerodrome string `json:"departure_aerodrome,omitempty"`
	ArrivalAerodrome   string `json:"arrival_aerodrome,omitempty"`

	Altitude *int   `json:"altitude,omitempty"` // metres
	Route    string `json:"route,omitempty"`
	Operator string `json:"operator,omitempty"`
	Remarks  string `json:"remarks,omitempty"`

	RawMessage  string   `json:"raw_message"`
	ParseErrors []string `json:"parse_errors,omitempty"`

	// Derived fields, filled in by the validation patch.
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	AverageSpeedKmh *float64 `json:"average_speed_kmh,omitempty"`
}
