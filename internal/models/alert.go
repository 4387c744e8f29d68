package models

import "time"

// Field limits for an alert record. They mirror the column widths of the
// alerts table.
const (
	MaxTitleLength        = 255
	MaxDescriptionLength  = 1000
	MaxCategoryLength     = 100
	MaxNeighborhoodLength = 100

	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Alert is a persisted geographic alert.
type Alert struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Neighborhood string    `json:"bairro"`
	Timestamp    time.Time `json:"timestamp"`
}

// AlertInput is the payload accepted when creating an alert.
// Coordinates are pointers so that a missing value can be told apart from 0.
// The validate tags must agree with the limits above.
type AlertInput struct {
	Title        string     `json:"title" validate:"required,max=255"`
	Description  string     `json:"description" validate:"max=1000"`
	Category     string     `json:"category" validate:"max=100"`
	Latitude     *float64   `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude    *float64   `json:"longitude" validate:"required,gte=-180,lte=180"`
	Neighborhood string     `json:"bairro" validate:"max=100"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}

// ToAlert converts a validated input into an Alert without an ID.
// A supplied timestamp is normalized to UTC at microsecond precision, which is
// what the database stores.
func (in AlertInput) ToAlert() Alert {
	a := Alert{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Neighborhood: in.Neighborhood,
	}
	if in.Latitude != nil {
		a.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		a.Longitude = *in.Longitude
	}
	if in.Timestamp != nil {
		a.Timestamp = NormalizeTime(*in.Timestamp)
	}
	return a
}

// NormalizeTime returns t in UTC truncated to microseconds.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
