package models

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func validInput() AlertInput {
	return AlertInput{
		Title:        "Alagamento na avenida",
		Description:  "Rua intransitável desde as 14h",
		Category:     "flood",
		Latitude:     ptr(-22.9056),
		Longitude:    ptr(-47.0608),
		Neighborhood: "Centro",
	}
}

func violationFields(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	fields := make([]string, len(verr.Violations))
	for i, v := range verr.Violations {
		fields[i] = v.Field
	}
	return fields
}

func TestValidate_Valid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AlertInput)
	}{
		{"full input", func(*AlertInput) {}},
		{"empty optional fields", func(in *AlertInput) {
			in.Description = ""
			in.Category = ""
			in.Neighborhood = ""
		}},
		{"title at limit", func(in *AlertInput) { in.Title = strings.Repeat("a", MaxTitleLength) }},
		{"multibyte title at limit", func(in *AlertInput) { in.Title = strings.Repeat("ç", MaxTitleLength) }},
		{"description at limit", func(in *AlertInput) { in.Description = strings.Repeat("d", MaxDescriptionLength) }},
		{"category at limit", func(in *AlertInput) { in.Category = strings.Repeat("c", MaxCategoryLength) }},
		{"coordinate bounds", func(in *AlertInput) {
			in.Latitude = ptr(90)
			in.Longitude = ptr(-180)
		}},
		{"zero coordinates", func(in *AlertInput) {
			in.Latitude = ptr(0)
			in.Longitude = ptr(0)
		}},
		{"untrimmed title accepted verbatim", func(in *AlertInput) { in.Title = "  spaced  " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			assert.NoError(t, in.Validate())
		})
	}
}

func TestValidate_SingleViolation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AlertInput)
		field  string
	}{
		{"empty title", func(in *AlertInput) { in.Title = "" }, "title"},
		{"title too long", func(in *AlertInput) { in.Title = strings.Repeat("a", MaxTitleLength+1) }, "title"},
		{"description too long", func(in *AlertInput) { in.Description = strings.Repeat("d", MaxDescriptionLength+1) }, "description"},
		{"category too long", func(in *AlertInput) { in.Category = strings.Repeat("c", MaxCategoryLength+1) }, "category"},
		{"bairro too long", func(in *AlertInput) { in.Neighborhood = strings.Repeat("b", MaxNeighborhoodLength+1) }, "bairro"},
		{"latitude above range", func(in *AlertInput) { in.Latitude = ptr(90.0001) }, "latitude"},
		{"latitude below range", func(in *AlertInput) { in.Latitude = ptr(-91) }, "latitude"},
		{"latitude NaN", func(in *AlertInput) { in.Latitude = ptr(math.NaN()) }, "latitude"},
		{"latitude missing", func(in *AlertInput) { in.Latitude = nil }, "latitude"},
		{"longitude above range", func(in *AlertInput) { in.Longitude = ptr(180.5) }, "longitude"},
		{"longitude missing", func(in *AlertInput) { in.Longitude = nil }, "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate()
			require.Error(t, err)
			assert.Equal(t, []string{tt.field}, violationFields(t, err))
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	in := AlertInput{
		Title:       "",
		Description: strings.Repeat("d", MaxDescriptionLength+1),
		Category:    strings.Repeat("c", MaxCategoryLength+1),
		Latitude:    ptr(120),
		Longitude:   nil,
	}

	err := in.Validate()
	require.Error(t, err)
	assert.Equal(t, []string{"title", "description", "category", "latitude", "longitude"}, violationFields(t, err))
	assert.Contains(t, err.Error(), "title: must not be empty")
	assert.Contains(t, err.Error(), "longitude: field required")
}

func TestToAlert(t *testing.T) {
	in := validInput()
	ts := time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.FixedZone("BRT", -3*3600))
	in.Timestamp = &ts

	a := in.ToAlert()

	assert.Zero(t, a.ID)
	assert.Equal(t, in.Title, a.Title)
	assert.Equal(t, -22.9056, a.Latitude)
	assert.Equal(t, -47.0608, a.Longitude)
	assert.Equal(t, "Centro", a.Neighborhood)
	assert.Equal(t, time.Date(2024, 5, 1, 15, 30, 0, 123456000, time.UTC), a.Timestamp)
}

func TestToAlert_NoTimestamp(t *testing.T) {
	a := validInput().ToAlert()
	assert.True(t, a.Timestamp.IsZero())
}

func TestValidationError_OrNil(t *testing.T) {
	var nilErr *ValidationError
	assert.NoError(t, nilErr.OrNil())
	assert.NoError(t, (&ValidationError{}).OrNil())

	verr := &ValidationError{}
	verr.Add("skip", "must be greater than or equal to %d", 0)
	err := verr.OrNil()
	require.Error(t, err)
	assert.Equal(t, "validation failed: skip: must be greater than or equal to 0", err.Error())
}
