package feed

// Sectionize groups a filtered, sorted list into ordered display buckets
// keyed by start time. Bucket order is the order of first appearance while
// scanning the input; when the engine sorted by time, section order is
// chronological for free. No item is dropped or duplicated.
func Sectionize(events []Event) []Section {
	index := make(map[string]int, len(events))
	sections := make([]Section, 0)

	for _, ev := range events {
		i, ok := index[ev.Time]
		if !ok {
			i = len(sections)
			index[ev.Time] = i
			sections = append(sections, Section{Title: ev.Time})
		}
		sections[i].Items = append(sections[i].Items, ev)
	}

	return sections
}
