// Package feed implements the client-side bloco feed pipeline: fetch
// orchestration across selected dates, normalization of raw records,
// deduplication, filtering/sorting and sectionizing for display.
package feed

// Status reports whether a bloco is happening right now according to the
// backend's explicit status field.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
)

// TimeStatus classifies an event relative to the device's wall clock.
type TimeStatus string

const (
	TimePast    TimeStatus = "past"
	TimeCurrent TimeStatus = "current"
	TimeFuture  TimeStatus = "future"
)

// Event is the canonical, immutable shape every raw record is mapped into
// before entering feed state.
type Event struct {
	// ID is the stable identifier: the raw id when the backend provides one,
	// otherwise a synthesized composite key.
	ID string `json:"id"`

	// UniqueKey combines id, fetch date, time and ordinal index so that list
	// rendering keys stay unique even when two raw records collide.
	UniqueKey string `json:"uniqueKey"`

	Name         string `json:"name"`
	Time         string `json:"time"`    // HH:MM, seconds truncated
	WeekDay      string `json:"weekDay"` // abbreviated pt-BR label (DOM..SÁB)
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`

	RestroomCount int `json:"restroomCount"`
	HospitalCount int `json:"hospitalCount"`

	Status     Status     `json:"status"`
	TimeStatus TimeStatus `json:"timeStatus"`

	// OriginalDate is the ISO date this record was fetched under. A record
	// appearing under multiple dates is a distinct entity per (id, date).
	OriginalDate string `json:"originalDate"`

	Latitude   float64 `json:"lat,omitempty"`
	Longitude  float64 `json:"lng,omitempty"`
	DistanceKm float64 `json:"distanceKm,omitempty"`
}

// Section is one display bucket of the sectioned feed.
type Section struct {
	Title string  `json:"title"`
	Items []Event `json:"items"`
}
