package feed

// dedupKey is the logical identity of an event within one fetch cycle.
// The same physical bloco fetched under two dates is two distinct entities.
func dedupKey(ev Event) string {
	return ev.ID + "_" + ev.OriginalDate
}

// Deduplicate collapses events sharing the same (id, originalDate) identity,
// keeping the first occurrence in input order. The output is never longer
// than the input and preserves the relative order of first occurrences.
func Deduplicate(events []Event) []Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]Event, 0, len(events))

	for _, ev := range events {
		key := dedupKey(ev)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}

	return out
}
