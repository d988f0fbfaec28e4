package api

import "time"

const (
	// DefaultTimeout applies when no request timeout is configured.
	DefaultTimeout = 15 * time.Second

	// DefaultRestroomRadiusKm is the search radius for restroom lookups.
	DefaultRestroomRadiusKm = 2.0

	// DefaultHospitalRadiusKm is the search radius for hospital lookups.
	// Hospitals are sparser than restroom points, so the net is wider.
	DefaultHospitalRadiusKm = 5.0

	// StatusLive is the backend's explicit marker for an ongoing bloco.
	StatusLive = "em_andamento"
)
