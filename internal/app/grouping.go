package app

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"whaledeck/clients/whaleapi"
)

// OutcomeGroup is one outcome's slice of whale positions with its totals.
type OutcomeGroup struct {
	Outcome   string
	Positions []whaleapi.WhalePosition
	Count     int
	Volume    float64 // sum of current_value across positions
}

// GroupPositions folds a flat position list into outcome-keyed groups.
// The grouping key is the outcome string exactly as received. Display order
// is the signal's picked side first, remaining outcomes alphabetically.
func GroupPositions(positions []whaleapi.WhalePosition, pickSide string) []OutcomeGroup {
	byOutcome := make(map[string]*OutcomeGroup)
	var order []string

	for _, p := range positions {
		g, ok := byOutcome[p.Outcome]
		if !ok {
			g = &OutcomeGroup{Outcome: p.Outcome}
			byOutcome[p.Outcome] = g
			order = append(order, p.Outcome)
		}
		g.Positions = append(g.Positions, p)
		g.Count++
		g.Volume += p.CurrentValue
	}

	// A collator rather than a byte compare so accented team names order
	// the way a reader expects.
	collator := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i] == pickSide {
			return order[j] != pickSide
		}
		if order[j] == pickSide {
			return false
		}
		return collator.CompareString(order[i], order[j]) < 0
	})

	groups := make([]OutcomeGroup, 0, len(order))
	for _, outcome := range order {
		groups = append(groups, *byOutcome[outcome])
	}
	return groups
}

// Consensus is a consensus percentage with its provenance. Live-derived
// values override the server-stored percent, which can lag behind position
// data; the Live flag drives the asterisk annotation in the UI and exports.
type Consensus struct {
	Percent float64
	Live    bool
}

// LiveConsensus recomputes consensus from fetched position data when
// possible, falling back to the stored percent when no positions were
// fetched or their total volume is zero.
func LiveConsensus(positions []whaleapi.WhalePosition, pickSide string, storedPercent float64) Consensus {
	if len(positions) == 0 {
		return Consensus{Percent: storedPercent}
	}

	var total, pick float64
	for _, p := range positions {
		total += p.CurrentValue
		if p.Outcome == pickSide {
			pick += p.CurrentValue
		}
	}
	if total == 0 {
		return Consensus{Percent: storedPercent}
	}

	return Consensus{Percent: math.Round(pick / total * 100), Live: true}
}

// String renders the percent with the live-derived marker.
func (c Consensus) String() string {
	if c.Live {
		return fmt.Sprintf("%.0f%%*", c.Percent)
	}
	return fmt.Sprintf("%.0f%%", c.Percent)
}

// Line-number extraction patterns, tried in order. This is best-effort text
// extraction: unexpected title formats degrade to showing the raw outcome or
// title, never an error.
var (
	trailingNumberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:[Pp]oints|[Pp]ts)?\.?\s*$`)
	overUnderPattern      = regexp.MustCompile(`(?i)(?:over/under|o/u|\bou\b)\s*:?\s*(\d+(?:\.\d+)?)`)
	anyNumberPattern      = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
)

// FormatLineDisplay renders an outcome plus the market line number pulled
// out of the market title: "<outcome> <number>" when a number is found, the
// title verbatim when it differs from the outcome, else the outcome alone.
func FormatLineDisplay(outcome, marketTitle string) string {
	title := strings.TrimSpace(marketTitle)
	outcome = strings.TrimSpace(outcome)

	for _, pattern := range []*regexp.Regexp{trailingNumberPattern, overUnderPattern, anyNumberPattern} {
		if m := pattern.FindStringSubmatch(title); m != nil {
			return outcome + " " + m[1]
		}
	}

	if title != "" && !strings.EqualFold(title, outcome) {
		return title
	}
	return outcome
}

// oppositeDirection maps over/under to its semantic opposite. Other
// directions have no fixed opposite.
func oppositeDirection(direction string) string {
	switch strings.ToLower(direction) {
	case "over":
		return "under"
	case "under":
		return "over"
	}
	return ""
}

// FindOppositeGroup locates the opposite-direction group for side-by-side
// comparison: same event slug and bet type, different direction. For
// over/under groups the exact semantic opposite is preferred; otherwise any
// differing direction matches. Returns nil when no pair exists — the caller
// renders that side as empty, not as an error.
func FindOppositeGroup(groups []whaleapi.GroupedWhaleBet, selected whaleapi.GroupedWhaleBet) *whaleapi.GroupedWhaleBet {
	wantDirection := oppositeDirection(selected.Direction)

	var fallback *whaleapi.GroupedWhaleBet
	for i := range groups {
		g := &groups[i]
		if g.GroupKey == selected.GroupKey {
			continue
		}
		if g.EventSlug != selected.EventSlug || g.BetType != selected.BetType {
			continue
		}
		if strings.EqualFold(g.Direction, selected.Direction) {
			continue
		}
		if wantDirection != "" && strings.EqualFold(g.Direction, wantDirection) {
			return g
		}
		if fallback == nil {
			fallback = g
		}
	}
	return fallback
}

// AllLines returns the group's primary line followed by its other lines.
func AllLines(group whaleapi.GroupedWhaleBet) []whaleapi.GroupedLine {
	lines := make([]whaleapi.GroupedLine, 0, 1+len(group.OtherLines))
	lines = append(lines, group.PrimaryLine)
	lines = append(lines, group.OtherLines...)
	return lines
}
