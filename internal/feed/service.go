package feed

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/pulaze/blocos/internal/metrics"
)

// State is the feed lifecycle state per fetch cycle:
// Idle -> Fetching -> Ready on success, Failed on error. Filtering and
// sectionizing re-run synchronously off Ready state without refetching.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// DebounceInterval is the quiet period after the last keystroke before a
// text-driven refetch fires.
const DebounceInterval = 500 * time.Millisecond

// ErrLastSelectedDate rejects removal of the only remaining selected date.
var ErrLastSelectedDate = errors.New("cannot remove the last selected date")

// Service owns the in-memory feed state for one UI session. Fetch cycles
// replace the event list wholesale; a generation counter captured at cycle
// start guards commits so a slow, superseded cycle can never overwrite newer
// state.
type Service struct {
	orchestrator *Orchestrator
	collectors   *metrics.Collectors
	logger       hclog.Logger
	now          func() time.Time

	mu         sync.Mutex
	state      State
	lastErr    error
	events     []Event
	filter     FilterState
	generation uint64
	debounce   *time.Timer
}

// NewService creates a feed service with the given initially selected dates.
func NewService(orchestrator *Orchestrator, initialDates []string, collectors *metrics.Collectors, logger hclog.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		collectors:   collectors,
		logger:       logger,
		now:          time.Now,
		state:        StateIdle,
		filter: FilterState{
			SortKey:       SortByTime,
			SelectedDates: append([]string(nil), initialDates...),
		},
	}
}

// Refresh runs one full fetch cycle synchronously: fetch, normalize,
// deduplicate, commit. Results are committed only if this is still the
// active cycle when it completes.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	dates := append([]string(nil), s.filter.SelectedDates...)
	search := s.filter.SearchText
	s.state = StateFetching
	s.mu.Unlock()

	start := s.now()
	tagged, err := s.orchestrator.FetchCycle(ctx, dates, search)
	if err != nil {
		s.observeCycle(start, "error")
		s.failCycle(generation, err)
		return err
	}

	now := s.now()
	normalized := make([]Event, 0, len(tagged))
	for i, tb := range tagged {
		normalized = append(normalized, NormalizeBloco(tb.Raw, tb.Date, i, now))
	}
	deduped := Deduplicate(normalized)

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding stale fetch cycle", "generation", generation)
		if s.collectors != nil {
			s.collectors.StaleCyclesDiscarded.Inc()
		}
		return nil
	}
	s.events = deduped
	s.state = StateReady
	s.lastErr = nil
	s.mu.Unlock()

	s.observeCycle(start, "ok")
	if s.collectors != nil {
		s.collectors.EventsNormalized.Add(float64(len(normalized)))
		s.collectors.DuplicatesDropped.Add(float64(len(normalized) - len(deduped)))
	}

	s.logger.Info("fetch cycle committed",
		"dates", len(dates),
		"normalized", len(normalized),
		"after_dedup", len(deduped))
	return nil
}

// failCycle records a failed cycle unless a newer cycle has already started.
func (s *Service) failCycle(generation uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return
	}
	s.state = StateFailed
	s.lastErr = err
	s.logger.Error("fetch cycle failed", "error", err.Error())
}

func (s *Service) observeCycle(start time.Time, result string) {
	if s.collectors == nil {
		return
	}
	s.collectors.FetchCycles.WithLabelValues(result).Inc()
	s.collectors.FetchDuration.Observe(s.now().Sub(start).Seconds())
}

// SetSearchText updates the search text and schedules a debounced refetch.
// A single-character query is treated as insufficient: it neither fetches nor
// flips the feed into a loading state. Timers are single-shot and replaced on
// every keystroke, so only the most recent one fires.
func (s *Service) SetSearchText(ctx context.Context, text string) {
	s.mu.Lock()
	s.filter.SearchText = text
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if len([]rune(text)) == 1 {
		s.mu.Unlock()
		return
	}
	s.debounce = time.AfterFunc(DebounceInterval, func() {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Debug("debounced refresh failed", "error", err.Error())
		}
	})
	s.mu.Unlock()
}

// ToggleDate adds or removes a selected date. Removing the last remaining
// date is rejected so the selection never becomes empty. The caller restarts
// the fetch cycle after a successful toggle.
func (s *Service) ToggleDate(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.filter.SelectedDates {
		if d == date {
			if len(s.filter.SelectedDates) == 1 {
				return ErrLastSelectedDate
			}
			s.filter.SelectedDates = append(
				s.filter.SelectedDates[:i],
				s.filter.SelectedDates[i+1:]...)
			return nil
		}
	}
	s.filter.SelectedDates = append(s.filter.SelectedDates, date)
	return nil
}

// SetTimeOfDay updates the time-of-day filter. No refetch is needed.
func (s *Service) SetTimeOfDay(tod TimeOfDay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.TimeOfDay = tod
}

// SetNeighborhood updates the neighborhood filter. No refetch is needed.
func (s *Service) SetNeighborhood(neighborhood string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Neighborhood = neighborhood
}

// SetSortKey updates the active sort order. No refetch is needed.
func (s *Service) SetSortKey(key SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == "" {
		key = SortByTime
	}
	s.filter.SortKey = key
}

// Filter returns a copy of the current filter state.
func (s *Service) Filter() FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Clone()
}

// State returns the current lifecycle state and, when Failed, the error that
// caused it.
func (s *Service) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// Snapshot re-runs the filter/sort engine and sectionizer over the committed
// events under the current filter state.
func (s *Service) Snapshot() []Section {
	s.mu.Lock()
	events := append([]Event(nil), s.events...)
	state := s.filter.Clone()
	s.mu.Unlock()

	return Sectionize(ApplyFilters(events, state))
}

// Events returns a copy of the committed, deduplicated event list.
func (s *Service) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Close cancels any pending debounce timer.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}
