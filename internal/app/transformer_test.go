package app

import (
	"testing"
	"time"

	"whaledeck/clients/whaleapi"
)

func TestRiskReward(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"fair coin", 0.50, 1.0},
		{"cheap entry", 0.40, 1.5},
		{"expensive entry", 0.80, 0.25},
		{"zero price", 0, 0},
		{"negative price", -0.1, 0},
		{"price at one", 1.0, 0},
		{"price above one", 1.2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := riskReward(tt.price)
			if !almostEqual(got, tt.want) {
				t.Errorf("riskReward(%v) = %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}

func TestParseMatchup(t *testing.T) {
	tests := []struct {
		title string
		away  string
		home  string
	}{
		{"Celtics @ Knicks", "Celtics", "Knicks"},
		{"Lakers vs. Warriors", "Lakers", "Warriors"},
		{"Chiefs vs Bills", "Chiefs", "Bills"},
		{"Will it rain tomorrow?", "Will it rain tomorrow?", ""},
		{"  Celtics @ Knicks  ", "Celtics", "Knicks"},
		// " @ " wins over " vs " when both appear.
		{"A @ B vs C", "A", "B vs C"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			away, home := parseMatchup(tt.title)
			if away != tt.away || home != tt.home {
				t.Errorf("parseMatchup(%q) = (%q, %q), want (%q, %q)",
					tt.title, away, home, tt.away, tt.home)
			}
		})
	}
}

func TestInferBetType(t *testing.T) {
	tests := []struct {
		name        string
		tag         string
		outcome     string
		marketTitle string
		want        BetType
	}{
		{"explicit totals tag", "totals", "Lakers", "Lakers Moneyline", BetTypeTotals},
		{"explicit spread tag", "Spread", "Over 224.5", "Total Points", BetTypeSpread},
		{"explicit moneyline tag", "ML", "Over 224.5", "Total Points", BetTypeMoneyline},
		{"over outcome", "", "Over 224.5", "Game Result", BetTypeTotals},
		{"under outcome", "", "under 44.5", "Game Result", BetTypeTotals},
		{"total in title", "", "Yes", "Total Points Scored", BetTypeTotals},
		{"over/under in title", "", "Yes", "Over/Under 224.5", BetTypeTotals},
		{"spread in title", "", "Lakers", "Point Spread", BetTypeSpread},
		{"signed number outcome", "", "Lakers -3.5", "Game Line", BetTypeSpread},
		{"plus spread outcome", "", "Jets +7", "Game Line", BetTypeSpread},
		{"plain moneyline", "", "Lakers", "Lakers to win", BetTypeMoneyline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inferBetType(tt.tag, tt.outcome, tt.marketTitle)
			if got != tt.want {
				t.Errorf("inferBetType(%q, %q, %q) = %v, want %v",
					tt.tag, tt.outcome, tt.marketTitle, got, tt.want)
			}
		})
	}
}

func TestTransformSignal(t *testing.T) {
	tier := 1
	gameTime := time.Date(2025, 11, 3, 0, 30, 0, 0, time.UTC)

	raw := whaleapi.RawSignal{
		ID:           101,
		Sport:        "NBA",
		EventTitle:   "Celtics @ Knicks",
		EventSlug:    "nba-bos-nyk-2025-11-02",
		MarketTitle:  "Total Points: Over/Under 224.5",
		Outcome:      "Over 224.5",
		GameTime:     gameTime,
		AvgEntry:     0.40,
		CurrentPrice: nil,
		ConsensusPct: 72,
		Traders:      4,
		TotalVolume:  51000,
		Tier:         &tier,
	}

	sig := TransformSignal(raw)

	if sig.ID != 101 || sig.Sport != "NBA" {
		t.Errorf("identity fields not carried: %+v", sig)
	}
	if sig.Matchup.Away != "Celtics" || sig.Matchup.Home != "Knicks" {
		t.Errorf("unexpected matchup: %+v", sig.Matchup)
	}
	if !sig.Matchup.GameTime.Equal(gameTime) {
		t.Errorf("unexpected game time: %v", sig.Matchup.GameTime)
	}
	if sig.BetType != BetTypeTotals {
		t.Errorf("expected Totals, got %v", sig.BetType)
	}

	// current_price is null, so the entry price stands in for it.
	if !almostEqual(sig.Pick.CurrentPrice, 0.40) {
		t.Errorf("expected current price 0.40, got %v", sig.Pick.CurrentPrice)
	}
	if !almostEqual(sig.Signal.RRRatio, 1.5) {
		t.Errorf("expected rr ratio 1.5, got %v", sig.Signal.RRRatio)
	}
	if sig.Signal.Tier == nil || *sig.Signal.Tier != 1 {
		t.Errorf("expected tier 1, got %v", sig.Signal.Tier)
	}

	// 72% consensus fails the 80% gate while everything else passes, so
	// tier and checklist visibly disagree.
	want := Checklist{
		ConsensusPass:    false,
		TraderCountPass:  true,
		PriceCeilingPass: true,
		RRRatioPass:      true,
		NoHedging:        true,
		NoEliteConflict:  true,
	}
	if sig.Checklist != want {
		t.Errorf("unexpected checklist: %+v", sig.Checklist)
	}
	if sig.Checklist.AllPass() {
		t.Error("checklist should not fully pass at 72% consensus")
	}
}

func TestTransformSignal_TierValidation(t *testing.T) {
	one, two, three, zero := 1, 2, 3, 0
	tests := []struct {
		name string
		tier *int
		want *int
	}{
		{"tier 1 kept", &one, &one},
		{"tier 2 kept", &two, &two},
		{"tier 3 dropped", &three, nil},
		{"tier 0 dropped", &zero, nil},
		{"nil tier", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := TransformSignal(whaleapi.RawSignal{Tier: tt.tier})
			if (sig.Signal.Tier == nil) != (tt.want == nil) {
				t.Fatalf("tier presence mismatch: got %v, want %v", sig.Signal.Tier, tt.want)
			}
			if tt.want != nil && *sig.Signal.Tier != *tt.want {
				t.Errorf("tier = %d, want %d", *sig.Signal.Tier, *tt.want)
			}
		})
	}
}

func TestTransformSignal_ChecklistGates(t *testing.T) {
	// Each gate flips independently of the others.
	passing := whaleapi.RawSignal{
		Outcome:      "Over 224.5",
		ConsensusPct: 85,
		Traders:      5,
		AvgEntry:     0.45,
	}

	base := TransformSignal(passing)
	if !base.Checklist.AllPass() {
		t.Fatalf("baseline should pass all gates: %+v", base.Checklist)
	}

	lowConsensus := passing
	lowConsensus.ConsensusPct = 79.9
	if c := TransformSignal(lowConsensus).Checklist; c.ConsensusPass || !c.TraderCountPass {
		t.Errorf("only consensus should fail: %+v", c)
	}

	fewTraders := passing
	fewTraders.Traders = 2
	if c := TransformSignal(fewTraders).Checklist; c.TraderCountPass || !c.ConsensusPass {
		t.Errorf("only trader count should fail: %+v", c)
	}

	pricey := passing
	pricey.AvgEntry = 0.56
	c := TransformSignal(pricey).Checklist
	if c.PriceCeilingPass {
		t.Errorf("price ceiling should fail at 0.56: %+v", c)
	}
	// 0.56 also drops the rr ratio below 1.0.
	if c.RRRatioPass {
		t.Errorf("rr ratio should fail at 0.56: %+v", c)
	}

	boundary := passing
	boundary.ConsensusPct = 80
	boundary.Traders = 3
	boundary.AvgEntry = 0.55
	if c := TransformSignal(boundary).Checklist; !c.ConsensusPass || !c.TraderCountPass || !c.PriceCeilingPass {
		t.Errorf("thresholds are inclusive: %+v", c)
	}
}

func TestTransformSignals(t *testing.T) {
	raw := []whaleapi.RawSignal{
		{ID: 1, EventTitle: "A @ B"},
		{ID: 2, EventTitle: "C vs D"},
	}

	signals := TransformSignals(raw)
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].ID != 1 || signals[1].ID != 2 {
		t.Errorf("order not preserved: %+v", signals)
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
