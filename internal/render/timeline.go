// Package render draws the sectioned feed as a terminal timeline. Column
// widths are computed with runewidth so accented names and wide glyphs keep
// the table aligned.
package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pulaze/blocos/internal/feed"
)

const rulerWidth = 56

// Timeline renders sections as a time-bucketed list, one ruler per bucket.
func Timeline(sections []feed.Section) string {
	if len(sections) == 0 {
		return "no blocos found\n"
	}

	var b strings.Builder

	nameWidth, hoodWidth := columnWidths(sections)

	for _, section := range sections {
		ruler := fmt.Sprintf("── %s ", section.Title)
		b.WriteString(ruler)
		if pad := rulerWidth - runewidth.StringWidth(ruler); pad > 0 {
			b.WriteString(strings.Repeat("─", pad))
		}
		b.WriteByte('\n')

		for _, ev := range section.Items {
			b.WriteString("  ")
			b.WriteString(ev.WeekDay)
			b.WriteString("  ")
			b.WriteString(runewidth.FillRight(ev.Name, nameWidth))
			b.WriteString("  ")
			b.WriteString(runewidth.FillRight(ev.Neighborhood, hoodWidth))
			b.WriteString("  ")
			b.WriteString(ev.Address)
			b.WriteString(marker(ev))
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func marker(ev feed.Event) string {
	switch {
	case ev.Status == feed.StatusLive:
		return "  [AO VIVO]"
	case ev.TimeStatus == feed.TimePast:
		return "  [encerrado]"
	default:
		return ""
	}
}

func columnWidths(sections []feed.Section) (nameWidth, hoodWidth int) {
	for _, section := range sections {
		for _, ev := range section.Items {
			if w := runewidth.StringWidth(ev.Name); w > nameWidth {
				nameWidth = w
			}
			if w := runewidth.StringWidth(ev.Neighborhood); w > hoodWidth {
				hoodWidth = w
			}
		}
	}
	return nameWidth, hoodWidth
}
