package app

import (
	"regexp"
	"strings"
	"time"

	"whaledeck/clients/whaleapi"
)

// BetType classifies what kind of line a signal is on.
type BetType string

const (
	BetTypeTotals    BetType = "Totals"
	BetTypeSpread    BetType = "Spread"
	BetTypeMoneyline BetType = "Moneyline"
)

// Checklist thresholds. The backend-side tier score uses its own inputs and
// can disagree with these gates; both are shown side by side.
const (
	checklistMinConsensus  = 80.0
	checklistMinTraders    = 3
	checklistMaxEntryPrice = 0.55
	checklistMinRRRatio    = 1.0
)

// Matchup is the parsed event title.
type Matchup struct {
	Away     string
	Home     string
	GameTime time.Time
}

// Pick is the recommended side with its prices.
type Pick struct {
	Side         string
	EntryPrice   float64
	CurrentPrice float64
}

// Metrics are the signal's scoring numbers.
type Metrics struct {
	ConsensusPercent float64
	WhaleCount       int
	TotalVolume      float64
	WeightedScore    float64
	SignalScore      float64
	Tier             *int // 1, 2, or nil for excluded
	RRRatio          float64
}

// Checklist holds the six independent display gates. NoHedging and
// NoEliteConflict have no client-side data source and are always true.
type Checklist struct {
	ConsensusPass    bool
	TraderCountPass  bool
	PriceCeilingPass bool
	RRRatioPass      bool
	NoHedging        bool
	NoEliteConflict  bool
}

// AllPass reports whether every gate is true.
func (c Checklist) AllPass() bool {
	return c.ConsensusPass && c.TraderCountPass && c.PriceCeilingPass &&
		c.RRRatioPass && c.NoHedging && c.NoEliteConflict
}

// Signal is the display-ready view of one backend signal. It is built fresh
// from each fetch response and never mutated afterwards.
type Signal struct {
	ID          int
	Sport       string
	BetType     BetType
	Matchup     Matchup
	Pick        Pick
	Signal      Metrics
	Checklist   Checklist
	EventTitle  string
	EventSlug   string
	MarketTitle string
	ConditionID string
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// matchupSeparators are tried in order; the first that appears in the event
// title splits it into away/home.
var matchupSeparators = []string{" @ ", " vs. ", " vs "}

// signedNumberPattern matches spread-style outcomes like "Lakers -3.5".
var signedNumberPattern = regexp.MustCompile(`[+-]\d+(\.\d+)?`)

// TransformSignal converts a raw backend signal into its display view.
// Pure and deterministic; all derivation rules live here.
func TransformSignal(raw whaleapi.RawSignal) Signal {
	currentPrice := raw.AvgEntry
	if raw.CurrentPrice != nil {
		currentPrice = *raw.CurrentPrice
	}

	rr := riskReward(currentPrice)

	away, home := parseMatchup(raw.EventTitle)

	var tier *int
	if raw.Tier != nil && (*raw.Tier == 1 || *raw.Tier == 2) {
		t := *raw.Tier
		tier = &t
	}

	return Signal{
		ID:      raw.ID,
		Sport:   raw.Sport,
		BetType: inferBetType(raw.BetType, raw.Outcome, raw.MarketTitle),
		Matchup: Matchup{
			Away:     away,
			Home:     home,
			GameTime: raw.GameTime,
		},
		Pick: Pick{
			Side:         raw.Outcome,
			EntryPrice:   raw.AvgEntry,
			CurrentPrice: currentPrice,
		},
		Signal: Metrics{
			ConsensusPercent: raw.ConsensusPct,
			WhaleCount:       raw.Traders,
			TotalVolume:      raw.TotalVolume,
			WeightedScore:    raw.WeightedScore,
			SignalScore:      raw.SignalScore,
			Tier:             tier,
			RRRatio:          rr,
		},
		Checklist: Checklist{
			ConsensusPass:    raw.ConsensusPct >= checklistMinConsensus,
			TraderCountPass:  raw.Traders >= checklistMinTraders,
			PriceCeilingPass: raw.AvgEntry <= checklistMaxEntryPrice,
			RRRatioPass:      rr >= checklistMinRRRatio,
			NoHedging:        true,
			NoEliteConflict:  true,
		},
		EventTitle:  raw.EventTitle,
		EventSlug:   raw.EventSlug,
		MarketTitle: raw.MarketTitle,
		ConditionID: raw.ConditionID,
		FirstSeenAt: raw.FirstSeenAt,
		LastSeenAt:  raw.LastSeenAt,
	}
}

// TransformSignals converts a whole fetch response.
func TransformSignals(raw []whaleapi.RawSignal) []Signal {
	signals := make([]Signal, 0, len(raw))
	for _, r := range raw {
		signals = append(signals, TransformSignal(r))
	}
	return signals
}

// riskReward computes (1-p)/p for prices strictly inside (0, 1) and 0 for
// anything out of range. Never negative.
func riskReward(currentPrice float64) float64 {
	if currentPrice <= 0 || currentPrice >= 1 {
		return 0
	}
	return (1 - currentPrice) / currentPrice
}

// parseMatchup splits an event title into away/home on the first matching
// separator. Titles with no separator land whole in away.
func parseMatchup(title string) (away, home string) {
	title = strings.TrimSpace(title)
	for _, sep := range matchupSeparators {
		if idx := strings.Index(title, sep); idx >= 0 {
			return title[:idx], title[idx+len(sep):]
		}
	}
	return title, ""
}

// inferBetType resolves the bet type with this precedence: explicit backend
// tag, over/under outcome text, totals wording in the title, spread wording
// or a signed-number outcome, then Moneyline as the default.
func inferBetType(tag, outcome, marketTitle string) BetType {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "totals", "total":
		return BetTypeTotals
	case "spread", "spreads":
		return BetTypeSpread
	case "moneyline", "ml":
		return BetTypeMoneyline
	}

	outcomeLower := strings.ToLower(strings.TrimSpace(outcome))
	if strings.HasPrefix(outcomeLower, "over") || strings.HasPrefix(outcomeLower, "under") {
		return BetTypeTotals
	}

	titleLower := strings.ToLower(marketTitle)
	if strings.Contains(titleLower, "total") || strings.Contains(titleLower, "over/under") {
		return BetTypeTotals
	}

	if strings.Contains(titleLower, "spread") || signedNumberPattern.MatchString(outcome) {
		return BetTypeSpread
	}

	return BetTypeMoneyline
}
