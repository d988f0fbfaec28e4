package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pulaze/blocos/internal/api"
)

// Fallbacks applied when the backend omits fields. Missing data is never an
// error at this layer.
const (
	FallbackName         = "Unnamed event"
	FallbackAddress      = "Location to be announced"
	FallbackNeighborhood = "Centro"
)

// ISODate is the backend's date wire format.
const ISODate = "2006-01-02"

var weekDayLabels = [...]string{"DOM", "SEG", "TER", "QUA", "QUI", "SEX", "SÁB"}

// NormalizeBloco converts one raw record fetched under fetchDate into the
// canonical Event shape. index is the record's ordinal position within the
// fetch cycle and only feeds key synthesis. The function is pure: all clock
// dependence comes in through now.
func NormalizeBloco(raw api.Bloco, fetchDate string, index int, now time.Time) Event {
	eventTime := normalizeClock(raw.Hora)

	id := raw.ID
	if id == "" {
		id = fmt.Sprintf("bloco_%s_%s_%d", fetchDate, eventTime, index)
	}

	ev := Event{
		ID:           id,
		UniqueKey:    fmt.Sprintf("%s_%s_%s_%d", id, fetchDate, eventTime, index),
		Name:         fallback(raw.Nome, FallbackName),
		Time:         eventTime,
		WeekDay:      weekDayLabel(fetchDate),
		Address:      composeAddress(raw.Logradouro, raw.Numero),
		Neighborhood: fallback(raw.Bairro, FallbackNeighborhood),
		Status:       StatusScheduled,
		TimeStatus:   classifyTime(eventTime, fetchDate, now),
		OriginalDate: fetchDate,
		Latitude:     raw.Latitude,
		Longitude:    raw.Longitude,
		DistanceKm:   raw.DistanceKm,
	}

	if raw.Proximity != nil {
		ev.RestroomCount = raw.Proximity.RestroomCount
		ev.HospitalCount = raw.Proximity.HospitalCount
	}

	// Live status must come from the backend; it is never synthesized here.
	if raw.Status == api.StatusLive {
		ev.Status = StatusLive
	}

	return ev
}

// classifyTime derives the temporal classification of an event fetched under
// date, relative to now. For today's events the rule is a half-open window
// around the current hour:
//
//	h in [currentHour-1, currentHour] -> current
//	h <  currentHour-1                -> past
//	otherwise                         -> future
//
// For other dates a lexical ISO comparison suffices. The computation is
// timezone-naive against the local clock; server clock drift is accepted.
func classifyTime(eventTime, date string, now time.Time) TimeStatus {
	today := now.Format(ISODate)
	if date == today {
		h, ok := hourOf(eventTime)
		if !ok {
			return TimeFuture
		}
		current := now.Hour()
		switch {
		case h >= current-1 && h <= current:
			return TimeCurrent
		case h < current-1:
			return TimePast
		default:
			return TimeFuture
		}
	}
	if date < today {
		return TimePast
	}
	return TimeFuture
}

// normalizeClock truncates HH:MM:SS to HH:MM and passes HH:MM through.
func normalizeClock(raw string) string {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 3)
	if len(parts) < 2 {
		return strings.TrimSpace(raw)
	}
	return parts[0] + ":" + parts[1]
}

// hourOf parses the integer hour out of an HH:MM string.
func hourOf(eventTime string) (int, bool) {
	idx := strings.IndexByte(eventTime, ':')
	if idx < 0 {
		return 0, false
	}
	h, err := strconv.Atoi(eventTime[:idx])
	if err != nil {
		return 0, false
	}
	return h, true
}

func weekDayLabel(date string) string {
	t, err := time.Parse(ISODate, date)
	if err != nil {
		return ""
	}
	return weekDayLabels[int(t.Weekday())]
}

func composeAddress(street, number string) string {
	street = strings.TrimSpace(street)
	if street == "" {
		return FallbackAddress
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return street
	}
	return street + ", " + number
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
