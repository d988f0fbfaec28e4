package feed

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// TimeOfDay is an optional coarse time filter. The empty value matches all.
type TimeOfDay string

const (
	TimeOfDayAny       TimeOfDay = ""
	TimeOfDayMorning   TimeOfDay = "morning"   // hour < 12
	TimeOfDayAfternoon TimeOfDay = "afternoon" // 12 <= hour < 18
	TimeOfDayNight     TimeOfDay = "night"     // hour >= 18
)

// SortKey selects the active sort order for the filtered feed.
type SortKey string

const (
	SortByTime     SortKey = "time"
	SortByNameAsc  SortKey = "nameAsc"
	SortByNameDesc SortKey = "nameDesc"
)

// NeighborhoodAll is the sentinel meaning the neighborhood filter is off.
const NeighborhoodAll = "All"

// FilterState is the mutable per-session filter configuration.
// SelectedDates drives which days are fetched and must never become empty.
type FilterState struct {
	SearchText    string
	TimeOfDay     TimeOfDay
	Neighborhood  string
	SortKey       SortKey
	SelectedDates []string
}

// Clone returns a deep copy so a snapshot of the state can leave the
// service's lock without aliasing the live slice.
func (s FilterState) Clone() FilterState {
	clone := s
	clone.SelectedDates = append([]string(nil), s.SelectedDates...)
	return clone
}

// ApplyFilters runs the text, time-of-day and neighborhood predicates (ANDed)
// over events and sorts the survivors by the active sort key. The input slice
// is not modified; applying the same state twice yields the same result.
func ApplyFilters(events []Event, state FilterState) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if !matchesSearch(ev, state.SearchText) {
			continue
		}
		if !matchesTimeOfDay(ev, state.TimeOfDay) {
			continue
		}
		if !matchesNeighborhood(ev, state.Neighborhood) {
			continue
		}
		out = append(out, ev)
	}

	sortEvents(out, state.SortKey)
	return out
}

// matchesSearch does a case-insensitive substring match against name and
// neighborhood. Absent search text matches everything.
func matchesSearch(ev Event, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(ev.Name), needle) ||
		strings.Contains(strings.ToLower(ev.Neighborhood), needle)
}

func matchesTimeOfDay(ev Event, tod TimeOfDay) bool {
	if tod == TimeOfDayAny {
		return true
	}
	h, ok := hourOf(ev.Time)
	if !ok {
		return false
	}
	switch tod {
	case TimeOfDayMorning:
		return h < 12
	case TimeOfDayAfternoon:
		return h >= 12 && h < 18
	case TimeOfDayNight:
		return h >= 18
	default:
		return true
	}
}

// matchesNeighborhood is an exact, case-sensitive comparison.
func matchesNeighborhood(ev Event, neighborhood string) bool {
	if neighborhood == "" || neighborhood == NeighborhoodAll {
		return true
	}
	return ev.Neighborhood == neighborhood
}

// sortEvents sorts in place. Time order ties break on originalDate, which is
// chronological because ISO dates compare lexically. Name order uses a
// Brazilian Portuguese collator so accented names land where users expect.
func sortEvents(events []Event, key SortKey) {
	switch key {
	case SortByNameAsc, SortByNameDesc:
		collator := collate.New(language.BrazilianPortuguese)
		sort.SliceStable(events, func(i, j int) bool {
			cmp := collator.CompareString(events[i].Name, events[j].Name)
			if key == SortByNameDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	default:
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].Time != events[j].Time {
				return events[i].Time < events[j].Time
			}
			return events[i].OriginalDate < events[j].OriginalDate
		})
	}
}
