package models

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000

	DefaultRadiusKM = 5.0
	MaxRadiusKM     = 100.0

	// KMPerDegree is the fixed kilometres-per-degree approximation used for
	// proximity search. It is applied to longitude as well, so the box gets
	// narrower in kilometres away from the equator.
	KMPerDegree = 111.0

	// NearbyLimit caps the number of proximity results.
	NearbyLimit = 100
)

// ListQuery selects a page of alerts, newest first.
type ListQuery struct {
	Skip     int    `json:"skip" validate:"gte=0"`
	Limit    int    `json:"limit" validate:"gte=1"`
	Category string `json:"category"` // exact match; empty means no filter
}

// Normalize validates q and clamps Limit to MaxListLimit.
func (q ListQuery) Normalize() (ListQuery, error) {
	if err := validateStruct(q); err != nil {
		return q, err
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	return q, nil
}

// NearbyQuery selects alerts around a point.
type NearbyQuery struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	RadiusKM  float64 `json:"radius_km" validate:"gt=0,finite"`
}

// Normalize validates q and clamps RadiusKM to MaxRadiusKM.
func (q NearbyQuery) Normalize() (NearbyQuery, error) {
	if err := validateStruct(q); err != nil {
		return q, err
	}
	if q.RadiusKM > MaxRadiusKM {
		q.RadiusKM = MaxRadiusKM
	}
	return q, nil
}

// BoundingBox is an inclusive latitude/longitude rectangle.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// BoxAround returns the square of half-width radiusKM/KMPerDegree degrees
// centred on (lat, lon). The box is not wrapped at the poles or the
// antimeridian.
func BoxAround(lat, lon, radiusKM float64) BoundingBox {
	d := radiusKM / KMPerDegree
	return BoundingBox{
		MinLat: lat - d,
		MaxLat: lat + d,
		MinLon: lon - d,
		MaxLon: lon + d,
	}
}

// Contains reports whether the point lies inside b, bounds included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
