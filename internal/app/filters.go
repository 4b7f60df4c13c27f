package app

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"whaledeck/clients/whaleapi"
)

// SortKey identifies one of the supported result orderings.
type SortKey string

const (
	SortCreated   SortKey = "created"   // first-seen timestamp, newest first
	SortGameTime  SortKey = "gameTime"  // scheduled game time, soonest first
	SortConsensus SortKey = "consensus" // combined consensus percent, highest first
	SortWhales    SortKey = "whales"    // unique whale count, highest first
	SortVolume    SortKey = "volume"    // total volume, highest first
)

// FilterAll is the sentinel meaning "no filter" for sport and bet type.
const FilterAll = "All"

// Defaults are the page-specific default filter values. A filter equal to
// its default is omitted from the canonical query so default-state URLs stay
// clean and shareable.
type Defaults struct {
	Status   string  // e.g. "open"
	GameDate string  // e.g. "this_week"
	Sort     SortKey // e.g. SortConsensus
	PageSize int
}

// Filters is the effective filter state for one result page.
type Filters struct {
	Sport     string
	BetType   string
	Status    string
	GameDate  string
	MinVolume float64 // 0 = unset
	MinWhales int     // 0 = unset
	Sort      SortKey
	Page      int // 1-indexed
}

// FilterController derives canonical query parameters from filter state and
// applies the matching predicate/comparator client-side. Numeric thresholds
// follow a two-stage model: typed values stay pending until committed, so a
// request is not fired on every keystroke.
type FilterController struct {
	defaults Defaults

	mu               sync.Mutex
	filters          Filters
	pendingMinVolume string
	pendingMinWhales string
}

// NewFilterController creates a controller seeded with the page defaults.
func NewFilterController(d Defaults) *FilterController {
	if d.Sort == "" {
		d.Sort = SortConsensus
	}
	if d.PageSize <= 0 {
		d.PageSize = 20
	}
	return &FilterController{
		defaults: d,
		filters: Filters{
			Sport:    FilterAll,
			BetType:  FilterAll,
			Status:   d.Status,
			GameDate: d.GameDate,
			Sort:     d.Sort,
			Page:     1,
		},
	}
}

// Filters returns a copy of the current effective filter state.
func (c *FilterController) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// SetSport selects a sport filter and resets pagination.
func (c *FilterController) SetSport(sport string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sport == "" {
		sport = FilterAll
	}
	c.filters.Sport = sport
	c.filters.Page = 1
}

// SetBetType selects a bet-type filter and resets pagination.
func (c *FilterController) SetBetType(betType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if betType == "" {
		betType = FilterAll
	}
	c.filters.BetType = betType
	c.filters.Page = 1
}

// SetStatus selects a status filter and resets pagination.
func (c *FilterController) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Status = status
	c.filters.Page = 1
}

// SetGameDate selects a date-range filter and resets pagination.
func (c *FilterController) SetGameDate(gameDate string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.GameDate = gameDate
	c.filters.Page = 1
}

// SetSort selects the result ordering and resets pagination.
func (c *FilterController) SetSort(key SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Sort = key
	c.filters.Page = 1
}

// SetPage moves to the given 1-indexed page. Other filters are untouched.
func (c *FilterController) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 1 {
		page = 1
	}
	c.filters.Page = page
}

// TypeMinVolume records a free-typed min-volume value without applying it.
// Clearing the input applies immediately; no commit gesture needed.
func (c *FilterController) TypeMinVolume(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingMinVolume = text
	if strings.TrimSpace(text) == "" {
		c.filters.MinVolume = 0
		c.filters.Page = 1
	}
}

// CommitMinVolume applies the pending min-volume value (enter key or blur).
// Unparsable input leaves the applied value unchanged.
func (c *FilterController) CommitMinVolume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	text := strings.TrimSpace(c.pendingMinVolume)
	if text == "" {
		return
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v < 0 {
		return
	}
	if v != c.filters.MinVolume {
		c.filters.MinVolume = v
		c.filters.Page = 1
	}
}

// TypeMinWhales records a free-typed min-whales value without applying it.
func (c *FilterController) TypeMinWhales(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingMinWhales = text
	if strings.TrimSpace(text) == "" {
		c.filters.MinWhales = 0
		c.filters.Page = 1
	}
}

// CommitMinWhales applies the pending min-whales value.
func (c *FilterController) CommitMinWhales() {
	c.mu.Lock()
	defer c.mu.Unlock()
	text := strings.TrimSpace(c.pendingMinWhales)
	if text == "" {
		return
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < 0 {
		return
	}
	if v != c.filters.MinWhales {
		c.filters.MinWhales = v
		c.filters.Page = 1
	}
}

// Query returns the canonical query representation of the current state.
func (c *FilterController) Query() url.Values {
	return FiltersToQuery(c.Filters(), c.defaults)
}

// Apply replaces the controller's state with filters decoded from a
// canonical query (e.g. a shared URL).
func (c *FilterController) Apply(query url.Values) {
	f := QueryToFilters(query, c.defaults)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = f
	c.pendingMinVolume = ""
	c.pendingMinWhales = ""
}

// FiltersToQuery serializes filter state, eliding every value equal to its
// documented default. Applying the result back through QueryToFilters
// reproduces the same effective state.
func FiltersToQuery(f Filters, d Defaults) url.Values {
	q := url.Values{}
	if f.Sport != "" && f.Sport != FilterAll {
		q.Set("sport", f.Sport)
	}
	if f.BetType != "" && f.BetType != FilterAll {
		q.Set("bet_type", f.BetType)
	}
	if f.Status != "" && f.Status != d.Status {
		q.Set("status", f.Status)
	}
	if f.GameDate != "" && f.GameDate != d.GameDate {
		q.Set("game_date", f.GameDate)
	}
	if f.MinVolume > 0 {
		q.Set("min_volume", strconv.FormatFloat(f.MinVolume, 'f', -1, 64))
	}
	if f.MinWhales > 0 {
		q.Set("min_whales", strconv.Itoa(f.MinWhales))
	}
	if f.Sort != "" && f.Sort != d.Sort {
		q.Set("sort", string(f.Sort))
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// QueryToFilters decodes a canonical query back into filter state, filling
// absent parameters with the page defaults.
func QueryToFilters(q url.Values, d Defaults) Filters {
	f := Filters{
		Sport:    FilterAll,
		BetType:  FilterAll,
		Status:   d.Status,
		GameDate: d.GameDate,
		Sort:     d.Sort,
		Page:     1,
	}
	if v := q.Get("sport"); v != "" {
		f.Sport = v
	}
	if v := q.Get("bet_type"); v != "" {
		f.BetType = v
	}
	if v := q.Get("status"); v != "" {
		f.Status = v
	}
	if v := q.Get("game_date"); v != "" {
		f.GameDate = v
	}
	if v := q.Get("min_volume"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			f.MinVolume = parsed
		}
	}
	if v := q.Get("min_whales"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			f.MinWhales = parsed
		}
	}
	if v := q.Get("sort"); v != "" {
		f.Sort = SortKey(v)
	}
	if v := q.Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 1 {
			f.Page = parsed
		}
	}
	return f
}

// SortSignals orders signals in place. Sorting is stable so equal keys keep
// fetch order.
func SortSignals(signals []Signal, key SortKey) {
	switch key {
	case SortGameTime:
		sort.SliceStable(signals, func(i, j int) bool {
			return signals[i].Matchup.GameTime.Before(signals[j].Matchup.GameTime)
		})
	case SortConsensus:
		sort.SliceStable(signals, func(i, j int) bool {
			return signals[i].Signal.ConsensusPercent > signals[j].Signal.ConsensusPercent
		})
	case SortWhales:
		sort.SliceStable(signals, func(i, j int) bool {
			return signals[i].Signal.WhaleCount > signals[j].Signal.WhaleCount
		})
	case SortVolume:
		sort.SliceStable(signals, func(i, j int) bool {
			return signals[i].Signal.TotalVolume > signals[j].Signal.TotalVolume
		})
	default: // SortCreated
		sort.SliceStable(signals, func(i, j int) bool {
			return signals[i].FirstSeenAt.After(signals[j].FirstSeenAt)
		})
	}
}

// SortGroups orders grouped whale bets in place. Groups carry no created
// timestamp, so SortCreated keeps fetch order.
func SortGroups(groups []whaleapi.GroupedWhaleBet, key SortKey) {
	switch key {
	case SortGameTime:
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].GameDate < groups[j].GameDate
		})
	case SortWhales:
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].UniqueWhaleCount > groups[j].UniqueWhaleCount
		})
	case SortVolume:
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].TotalVolume > groups[j].TotalVolume
		})
	case SortConsensus:
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].CombinedConsensusPct > groups[j].CombinedConsensusPct
		})
	}
}

// FilterGroups applies the filter predicate client-side as a safety net even
// when the server already filtered.
func FilterGroups(groups []whaleapi.GroupedWhaleBet, f Filters) []whaleapi.GroupedWhaleBet {
	out := make([]whaleapi.GroupedWhaleBet, 0, len(groups))
	for _, g := range groups {
		if f.Sport != "" && f.Sport != FilterAll && !strings.EqualFold(g.Sport, f.Sport) {
			continue
		}
		if f.BetType != "" && f.BetType != FilterAll && !strings.EqualFold(g.BetType, f.BetType) {
			continue
		}
		if f.Status != "" && g.Status != "" && !strings.EqualFold(g.Status, f.Status) {
			continue
		}
		if f.MinVolume > 0 && g.TotalVolume < f.MinVolume {
			continue
		}
		if f.MinWhales > 0 && g.UniqueWhaleCount < f.MinWhales {
			continue
		}
		out = append(out, g)
	}
	return out
}

// PageWindow returns the page numbers to display: at most five buttons,
// centered on current, clamped at the first and last pages.
func PageWindow(current, totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	const windowSize = 5
	start := current - windowSize/2
	if start < 1 {
		start = 1
	}
	end := start + windowSize - 1
	if end > totalPages {
		end = totalPages
		start = end - windowSize + 1
		if start < 1 {
			start = 1
		}
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// QueryLatch implements last-committed-parameters-wins supersession for
// in-flight fetches: a response is applied only if the query it was issued
// for is still the most recently committed one. Superseded requests are not
// aborted, just ignored when they resolve.
type QueryLatch struct {
	mu      sync.Mutex
	current string
}

// Commit registers a canonical parameter set as the query of interest and
// returns its token.
func (l *QueryLatch) Commit(params url.Values) string {
	key := params.Encode()
	l.mu.Lock()
	l.current = key
	l.mu.Unlock()
	return key
}

// Accept reports whether a response for the given token may still be
// applied to state.
func (l *QueryLatch) Accept(token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current == token
}
