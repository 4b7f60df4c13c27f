package app

import (
	"net/url"
	"reflect"
	"testing"
	"time"

	"whaledeck/clients/whaleapi"
)

func testDefaults() Defaults {
	return Defaults{
		Status:   "open",
		GameDate: "this_week",
		Sort:     SortConsensus,
		PageSize: 20,
	}
}

func TestFilterController_DefaultStateEmptyQuery(t *testing.T) {
	c := NewFilterController(testDefaults())

	q := c.Query()
	if len(q) != 0 {
		t.Errorf("default state should produce an empty query, got: %v", q.Encode())
	}
}

func TestFilterController_QueryRoundTrip(t *testing.T) {
	c := NewFilterController(testDefaults())
	c.SetSport("NBA")
	c.SetStatus("settled")
	c.TypeMinVolume("5000")
	c.CommitMinVolume()
	c.SetPage(3)

	q := c.Query()

	restored := NewFilterController(testDefaults())
	restored.Apply(q)

	if got, want := restored.Filters(), c.Filters(); got != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestFilterController_DefaultsElided(t *testing.T) {
	c := NewFilterController(testDefaults())
	c.SetSport("NBA")
	c.SetStatus("open")        // equals default
	c.SetGameDate("this_week") // equals default
	c.SetSort(SortConsensus)   // equals default

	q := c.Query()
	if q.Get("sport") != "NBA" {
		t.Errorf("expected sport param, got: %v", q.Encode())
	}
	for _, param := range []string{"status", "game_date", "sort", "page"} {
		if q.Has(param) {
			t.Errorf("default-valued %s should be elided, got: %v", param, q.Encode())
		}
	}
}

func TestFilterController_PageResetOnFilterChange(t *testing.T) {
	tests := []struct {
		name   string
		change func(c *FilterController)
	}{
		{"sport", func(c *FilterController) { c.SetSport("NFL") }},
		{"bet type", func(c *FilterController) { c.SetBetType("Totals") }},
		{"status", func(c *FilterController) { c.SetStatus("settled") }},
		{"game date", func(c *FilterController) { c.SetGameDate("today") }},
		{"sort", func(c *FilterController) { c.SetSort(SortVolume) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFilterController(testDefaults())
			c.SetPage(4)
			tt.change(c)
			if got := c.Filters().Page; got != 1 {
				t.Errorf("expected page reset to 1, got %d", got)
			}
		})
	}
}

func TestFilterController_SetPageKeepsFilters(t *testing.T) {
	c := NewFilterController(testDefaults())
	c.SetSport("NBA")
	c.SetPage(5)

	f := c.Filters()
	if f.Page != 5 || f.Sport != "NBA" {
		t.Errorf("SetPage should not touch other filters: %+v", f)
	}

	c.SetPage(0)
	if got := c.Filters().Page; got != 1 {
		t.Errorf("page below 1 should clamp, got %d", got)
	}
}

func TestFilterController_MinVolumeCommit(t *testing.T) {
	c := NewFilterController(testDefaults())
	c.SetPage(3)

	// Typing alone applies nothing.
	c.TypeMinVolume("5000")
	if f := c.Filters(); f.MinVolume != 0 || f.Page != 3 {
		t.Errorf("typing should not apply: %+v", f)
	}

	// Commit applies and resets the page.
	c.CommitMinVolume()
	if f := c.Filters(); f.MinVolume != 5000 || f.Page != 1 {
		t.Errorf("commit should apply and reset page: %+v", f)
	}

	// Unparsable input leaves the applied value unchanged.
	c.TypeMinVolume("abc")
	c.CommitMinVolume()
	if f := c.Filters(); f.MinVolume != 5000 {
		t.Errorf("invalid input should be ignored: %+v", f)
	}

	// Negative input is rejected too.
	c.TypeMinVolume("-10")
	c.CommitMinVolume()
	if f := c.Filters(); f.MinVolume != 5000 {
		t.Errorf("negative input should be ignored: %+v", f)
	}

	// Clearing applies immediately without a commit.
	c.SetPage(2)
	c.TypeMinVolume("")
	if f := c.Filters(); f.MinVolume != 0 || f.Page != 1 {
		t.Errorf("clearing should apply immediately: %+v", f)
	}
}

func TestFilterController_MinWhalesCommit(t *testing.T) {
	c := NewFilterController(testDefaults())

	c.TypeMinWhales("3")
	c.CommitMinWhales()
	if f := c.Filters(); f.MinWhales != 3 {
		t.Errorf("expected min whales 3: %+v", f)
	}

	// Committing the same value again must not reset the page.
	c.SetPage(2)
	c.TypeMinWhales("3")
	c.CommitMinWhales()
	if f := c.Filters(); f.Page != 2 {
		t.Errorf("unchanged commit should not reset page: %+v", f)
	}
}

func TestQueryToFilters_BadValues(t *testing.T) {
	q := url.Values{}
	q.Set("min_volume", "not-a-number")
	q.Set("min_whales", "-2")
	q.Set("page", "0")

	f := QueryToFilters(q, testDefaults())
	if f.MinVolume != 0 || f.MinWhales != 0 || f.Page != 1 {
		t.Errorf("bad values should fall back to defaults: %+v", f)
	}
}

func TestSortSignals(t *testing.T) {
	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	signals := []Signal{
		{ID: 1, FirstSeenAt: base, Signal: Metrics{ConsensusPercent: 70, WhaleCount: 3, TotalVolume: 100}},
		{ID: 2, FirstSeenAt: base.Add(time.Hour), Signal: Metrics{ConsensusPercent: 90, WhaleCount: 1, TotalVolume: 300}},
		{ID: 3, FirstSeenAt: base.Add(2 * time.Hour), Signal: Metrics{ConsensusPercent: 80, WhaleCount: 5, TotalVolume: 200}},
	}

	tests := []struct {
		key  SortKey
		want []int
	}{
		{SortCreated, []int{3, 2, 1}},
		{SortConsensus, []int{2, 3, 1}},
		{SortWhales, []int{3, 1, 2}},
		{SortVolume, []int{2, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			in := make([]Signal, len(signals))
			copy(in, signals)
			SortSignals(in, tt.key)

			got := make([]int, len(in))
			for i, s := range in {
				got[i] = s.ID
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterGroups(t *testing.T) {
	groups := []whaleapi.GroupedWhaleBet{
		{GroupKey: "a", Sport: "NBA", BetType: "Totals", Status: "open", TotalVolume: 10000, UniqueWhaleCount: 4},
		{GroupKey: "b", Sport: "NFL", BetType: "Totals", Status: "open", TotalVolume: 20000, UniqueWhaleCount: 2},
		{GroupKey: "c", Sport: "NBA", BetType: "Spread", Status: "settled", TotalVolume: 5000, UniqueWhaleCount: 6},
	}

	f := Filters{Sport: "NBA", BetType: FilterAll, Status: "open"}
	got := FilterGroups(groups, f)
	if len(got) != 1 || got[0].GroupKey != "a" {
		t.Errorf("unexpected result: %+v", got)
	}

	f = Filters{Sport: FilterAll, BetType: FilterAll, MinVolume: 9000}
	got = FilterGroups(groups, f)
	if len(got) != 2 {
		t.Errorf("expected 2 groups over 9000 volume, got %d", len(got))
	}

	f = Filters{Sport: FilterAll, BetType: FilterAll, MinWhales: 4}
	got = FilterGroups(groups, f)
	if len(got) != 2 {
		t.Errorf("expected 2 groups with 4+ whales, got %d", len(got))
	}
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{"empty", 1, 0, nil},
		{"single page", 1, 1, []int{1}},
		{"fewer than window", 2, 3, []int{1, 2, 3}},
		{"start clamp", 1, 10, []int{1, 2, 3, 4, 5}},
		{"centered", 5, 10, []int{3, 4, 5, 6, 7}},
		{"end clamp", 9, 10, []int{6, 7, 8, 9, 10}},
		{"last page", 10, 10, []int{6, 7, 8, 9, 10}},
		{"current out of range", 99, 10, []int{6, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageWindow(tt.current, tt.total)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageWindow(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
			}
		})
	}
}

func TestQueryLatch(t *testing.T) {
	var latch QueryLatch

	first := url.Values{}
	first.Set("sport", "NBA")
	tokenA := latch.Commit(first)

	if !latch.Accept(tokenA) {
		t.Error("latest commit should be accepted")
	}

	second := url.Values{}
	second.Set("sport", "NFL")
	tokenB := latch.Commit(second)

	if latch.Accept(tokenA) {
		t.Error("superseded commit should be rejected")
	}
	if !latch.Accept(tokenB) {
		t.Error("latest commit should be accepted")
	}

	// Accept does not consume the token; slow duplicate responses for the
	// current query are still applied.
	if !latch.Accept(tokenB) {
		t.Error("accept should be repeatable for the current token")
	}
}
