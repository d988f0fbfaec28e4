package feed

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"

	"github.com/pulaze/blocos/internal/api"
)

// MinSearchLength is the minimum number of characters before a text search is
// considered meaningful. A single-character query is suppressed entirely.
const MinSearchLength = 2

// BlocoFetcher is the subset of the API client the orchestrator needs.
type BlocoFetcher interface {
	FetchBlocos(ctx context.Context, q api.BlocoQuery) (*api.BlocosResponse, error)
}

// TaggedBloco pairs a raw record with the date it was fetched under.
// Tagging happens before concatenation: the same physical event fetched under
// two different date queries becomes two distinct tagged records.
type TaggedBloco struct {
	Raw  api.Bloco
	Date string
}

// Orchestrator issues one date-scoped listing query per selected date, in
// parallel, against a fixed reference coordinate.
type Orchestrator struct {
	fetcher   BlocoFetcher
	latitude  float64
	longitude float64
	radiusKm  float64
	limit     int

	// calendar is the full set of known carnival dates, queried instead of
	// the selection while a global text search is active.
	calendar []string

	logger hclog.Logger
}

// NewOrchestrator creates an orchestrator bound to a reference coordinate and
// the configured carnival calendar.
func NewOrchestrator(fetcher BlocoFetcher, lat, lng, radiusKm float64, limit int, calendar []string, logger hclog.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher:   fetcher,
		latitude:  lat,
		longitude: lng,
		radiusKm:  radiusKm,
		limit:     limit,
		calendar:  calendar,
		logger:    logger,
	}
}

// Calendar returns the full known date range.
func (o *Orchestrator) Calendar() []string {
	return append([]string(nil), o.calendar...)
}

// FetchCycle runs one fetch cycle. Queries run concurrently, one per date,
// and are joined positionally: the concatenation order follows date
// enumeration order, not completion order. If any single query fails the
// whole cycle fails; partial aggregation is not supported.
func (o *Orchestrator) FetchCycle(ctx context.Context, selectedDates []string, search string) ([]TaggedBloco, error) {
	dates := selectedDates
	if utf8.RuneCountInString(search) >= MinSearchLength {
		dates = o.calendar
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no dates to fetch")
	}

	results := make([][]api.Bloco, len(dates))
	errs := make([]error, len(dates))

	var wg sync.WaitGroup
	for i, date := range dates {
		wg.Add(1)
		go func(i int, date string) {
			defer wg.Done()
			resp, err := o.fetcher.FetchBlocos(ctx, api.BlocoQuery{
				Latitude:    o.latitude,
				Longitude:   o.longitude,
				RadiusKm:    o.radiusKm,
				Date:        date,
				Search:      search,
				Limit:       o.limit,
				ByProximity: true,
			})
			if err != nil {
				errs[i] = fmt.Errorf("fetch blocos for %s: %w", date, err)
				return
			}
			results[i] = resp.Blocos
		}(i, date)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var tagged []TaggedBloco
	for i, date := range dates {
		for _, raw := range results[i] {
			tagged = append(tagged, TaggedBloco{Raw: raw, Date: date})
		}
	}

	o.logger.Debug("fetch cycle joined", "dates", len(dates), "records", len(tagged))
	return tagged, nil
}
