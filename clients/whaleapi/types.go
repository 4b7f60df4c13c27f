package whaleapi

import "time"

// TokenPair is the credential pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// User is the authenticated account fetched from /api/auth/me.
type User struct {
	ID               int       `json:"id"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name"`
	SubscriptionTier string    `json:"subscription_tier"` // free, pro, enterprise
	CreatedAt        time.Time `json:"created_at"`
	LastLoginAt      time.Time `json:"last_login_at"`
}

// RawSignal is a signal record exactly as the backend returns it. Display
// enrichment (matchup parsing, bet-type inference, checklist) happens in
// internal/app, not here.
type RawSignal struct {
	ID          int    `json:"id"`
	Sport       string `json:"sport"`
	BetType     string `json:"bet_type,omitempty"`
	EventTitle  string `json:"event_title"`
	EventSlug   string `json:"event_slug"`
	MarketTitle string `json:"market_title"`
	Outcome     string `json:"outcome"`
	ConditionID string `json:"condition_id"`

	GameTime time.Time `json:"game_time"`

	AvgEntry     float64  `json:"avg_entry"`
	CurrentPrice *float64 `json:"current_price"` // nil when no live price is known

	ConsensusPct  float64 `json:"consensus_pct"`
	Traders       int     `json:"traders"`
	TotalVolume   float64 `json:"total_volume"`
	WeightedScore float64 `json:"weighted_score"`
	SignalScore   float64 `json:"signal_score"`
	Tier          *int    `json:"tier"` // 1, 2, or nil for excluded

	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// SignalsResponse wraps the signals list endpoint.
type SignalsResponse struct {
	Signals []RawSignal `json:"signals"`
}

// RefreshResult is the outcome of a manual signal refresh trigger.
type RefreshResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WhalePosition is one tracked trader's stake on one outcome.
type WhalePosition struct {
	TraderWallet string  `json:"trader_wallet"`
	Username     string  `json:"username,omitempty"`
	Rank         int     `json:"rank,omitempty"`
	Outcome      string  `json:"outcome"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avg_price"`
	CurrentValue float64 `json:"current_value"`
	Status       string  `json:"status"`
}

// PositionsResponse wraps the per-signal positions endpoint.
type PositionsResponse struct {
	Positions     []WhalePosition `json:"positions"`
	Count         int             `json:"count"`
	SignalOutcome string          `json:"signal_outcome"`
}

// GroupedLine is one concrete market line (a specific over/under number or
// spread value) with its whale totals.
type GroupedLine struct {
	ConditionID string          `json:"condition_id"`
	Outcome     string          `json:"outcome"`
	MarketTitle string          `json:"market_title"`
	WhaleCount  int             `json:"whale_count"`
	Volume      float64         `json:"volume"`
	AvgEntry    float64         `json:"avg_entry"`
	Whales      []WhalePosition `json:"whales,omitempty"`
}

// GroupedWhaleBet aggregates all lines sharing one direction for one
// event+bet-type. PrimaryLine and OtherLines partition the group's lines;
// UniqueWhaleCount counts distinct wallets, not positions.
type GroupedWhaleBet struct {
	GroupKey             string        `json:"group_key"`
	EventSlug            string        `json:"event_slug"`
	EventTitle           string        `json:"event_title"`
	Sport                string        `json:"sport"`
	BetType              string        `json:"bet_type"`
	Direction            string        `json:"direction"`
	PrimaryLine          GroupedLine   `json:"primary_line"`
	OtherLines           []GroupedLine `json:"other_lines"`
	UniqueWhaleCount     int           `json:"unique_whale_count"`
	TotalVolume          float64       `json:"total_volume"`
	CombinedConsensusPct float64       `json:"combined_consensus_pct"`
	GameDate             string        `json:"game_date,omitempty"`
	Status               string        `json:"status,omitempty"`
}

// GroupedResponse wraps the grouped whale-bets endpoint.
type GroupedResponse struct {
	Groups []GroupedWhaleBet `json:"groups"`
	Total  int               `json:"total"`
}

// WhalePlay is one flat entry in the paginated whale-plays feed.
type WhalePlay struct {
	EventTitle  string  `json:"event_title"`
	EventSlug   string  `json:"event_slug"`
	Sport       string  `json:"sport"`
	BetType     string  `json:"bet_type"`
	Outcome     string  `json:"outcome"`
	MarketTitle string  `json:"market_title"`
	ConditionID string  `json:"condition_id"`
	WhaleCount  int     `json:"whale_count"`
	Volume      float64 `json:"volume"`
	AvgEntry    float64 `json:"avg_entry"`
	GameDate    string  `json:"game_date"`
	Status      string  `json:"status"`
}

// WhalePlaysPage is one page of the whale-plays feed.
type WhalePlaysPage struct {
	Plays      []WhalePlay `json:"plays"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// JournalEntry is a user's self-reported position linked to a signal.
type JournalEntry struct {
	ID                int        `json:"id"`
	SignalID          int        `json:"signal_id"`
	Outcome           string     `json:"outcome"`
	Stake             float64    `json:"stake"`
	EntryPrice        float64    `json:"entry_price"`
	PotentialPayout   float64    `json:"potential_payout"`
	Status            string     `json:"status"` // open, won, lost, sold
	ActualPayout      float64    `json:"actual_payout"`
	ProfitLoss        float64    `json:"profit_loss"`
	Thesis            string     `json:"thesis"`
	ContradictsSignal bool       `json:"contradicts_signal"`
	TradeDate         string     `json:"trade_date"`
	ResolvedAt        *time.Time `json:"resolved_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Meta reports backend refresh status for the staleness panel.
type Meta struct {
	LastSignalsRefresh  *time.Time `json:"last_signals_refresh"`
	CronIntervalMinutes int        `json:"cron_interval_minutes"`
	IsRefreshing        bool       `json:"is_refreshing"`
	RefreshError        string     `json:"refresh_error,omitempty"`
}
