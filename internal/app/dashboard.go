package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"whaledeck/clients/whaleapi"
)

// Renderer draws dashboard panels as console tables.
type Renderer struct {
	logger   *zap.Logger
	out      io.Writer
	maxRows  int
	useColor bool

	pass *color.Color
	fail *color.Color
	warn *color.Color
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(logger *zap.Logger, out io.Writer, maxRows int, useColor bool) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 50
	}
	color.NoColor = !useColor

	return &Renderer{
		logger:   logger,
		out:      out,
		maxRows:  maxRows,
		useColor: useColor,
		pass:     color.New(color.FgGreen),
		fail:     color.New(color.FgRed),
		warn:     color.New(color.FgYellow),
	}
}

// RenderMeta prints the backend refresh status line.
func (r *Renderer) RenderMeta(meta *whaleapi.Meta) {
	if meta == nil {
		return
	}

	last := "never"
	if meta.LastSignalsRefresh != nil {
		last = meta.LastSignalsRefresh.Local().Format(time.RFC822)
	}
	status := fmt.Sprintf("last refresh %s (every %dm)", last, meta.CronIntervalMinutes)
	if meta.IsRefreshing {
		status += " — refreshing now"
	}
	fmt.Fprintln(r.out, status)

	if meta.RefreshError != "" {
		fmt.Fprintln(r.out, r.warn.Sprintf("refresh error: %s", meta.RefreshError))
	}
}

// RenderSignals prints the signal list with checklist and tier.
func (r *Renderer) RenderSignals(signals []Signal) {
	if len(signals) == 0 {
		fmt.Fprintln(r.out, "no signals")
		return
	}

	table := tablewriter.NewWriter(r.out)
	table.Header("ID", "Sport", "Type", "Matchup", "Pick", "Entry", "Now", "R/R", "Cons", "Whales", "Vol", "Tier", "Checklist")

	rows := signals
	if len(rows) > r.maxRows {
		rows = rows[:r.maxRows]
	}

	for _, s := range rows {
		table.Append(
			fmt.Sprintf("%d", s.ID),
			s.Sport,
			string(s.BetType),
			matchupTitle(s.Matchup, s.EventTitle),
			FormatLineDisplay(s.Pick.Side, s.MarketTitle),
			fmt.Sprintf("%.2f¢", s.Pick.EntryPrice*100),
			fmt.Sprintf("%.2f¢", s.Pick.CurrentPrice*100),
			fmt.Sprintf("%.2f", s.Signal.RRRatio),
			fmt.Sprintf("%.0f%%", s.Signal.ConsensusPercent),
			fmt.Sprintf("%d", s.Signal.WhaleCount),
			fmt.Sprintf("$%.0f", s.Signal.TotalVolume),
			tierLabel(s.Signal.Tier),
			r.checklistSummary(s.Checklist),
		)
	}
	table.Render()

	if len(signals) > r.maxRows {
		fmt.Fprintf(r.out, "… %d more rows hidden\n", len(signals)-r.maxRows)
	}
}

// RenderGroups prints grouped whale bets with their primary line.
func (r *Renderer) RenderGroups(groups []whaleapi.GroupedWhaleBet) {
	if len(groups) == 0 {
		fmt.Fprintln(r.out, "no whale bets")
		return
	}

	table := tablewriter.NewWriter(r.out)
	table.Header("Event", "Sport", "Type", "Direction", "Primary line", "Lines", "Whales", "Vol", "Cons")

	rows := groups
	if len(rows) > r.maxRows {
		rows = rows[:r.maxRows]
	}

	for _, g := range rows {
		table.Append(
			g.EventTitle,
			g.Sport,
			g.BetType,
			g.Direction,
			FormatLineDisplay(g.PrimaryLine.Outcome, g.PrimaryLine.MarketTitle),
			fmt.Sprintf("%d", 1+len(g.OtherLines)),
			fmt.Sprintf("%d", g.UniqueWhaleCount),
			fmt.Sprintf("$%.0f", g.TotalVolume),
			fmt.Sprintf("%.0f%%", g.CombinedConsensusPct),
		)
	}
	table.Render()
}

// RenderPositions prints a signal's whale positions grouped by outcome,
// pick side first, with the consensus line (asterisked when live-derived).
func (r *Renderer) RenderPositions(groups []OutcomeGroup, consensus Consensus, pickSide string) {
	fmt.Fprintf(r.out, "consensus: %s (pick: %s)\n", consensus.String(), pickSide)

	for _, g := range groups {
		fmt.Fprintf(r.out, "%s — %d positions, $%.0f\n", g.Outcome, g.Count, g.Volume)

		table := tablewriter.NewWriter(r.out)
		table.Header("Whale", "Rank", "Size", "Avg", "Value", "Status")
		for _, p := range g.Positions {
			table.Append(
				whaleName(p),
				rankLabel(p.Rank),
				fmt.Sprintf("%.0f", p.Size),
				fmt.Sprintf("%.2f¢", p.AvgPrice*100),
				fmt.Sprintf("$%.0f", p.CurrentValue),
				p.Status,
			)
		}
		table.Render()
	}
}

// RenderJournal prints the journal panel for the current state.
func (r *Renderer) RenderJournal(view JournalView) {
	switch view.Phase {
	case JournalHidden:
		fmt.Fprintln(r.out, "journal: no entry")
	case JournalLoading:
		fmt.Fprintln(r.out, "journal: saving…")
	case JournalForm:
		fmt.Fprintln(r.out, r.fail.Sprintf("journal: failed — %s (retry available)", view.ErrMsg))
	case JournalDisplay:
		e := view.Entry
		if e == nil {
			return
		}
		line := fmt.Sprintf("journal: %s $%.0f @ %.2f¢ → %s",
			e.Outcome, e.Stake, e.EntryPrice*100, e.Status)
		if e.Status == "won" {
			line = r.pass.Sprint(line)
		} else if e.Status == "lost" {
			line = r.fail.Sprint(line)
		}
		fmt.Fprintln(r.out, line)
		if e.ContradictsSignal {
			fmt.Fprintln(r.out, r.warn.Sprint("  position contradicts the signal"))
		}
		if view.EditingNotes {
			fmt.Fprintf(r.out, "  notes (editing): %s\n", view.NotesBuffer)
		} else if e.Thesis != "" {
			fmt.Fprintf(r.out, "  notes: %s\n", e.Thesis)
		}
		if view.SaveErr != "" {
			fmt.Fprintln(r.out, r.warn.Sprintf("  note save failed: %s", view.SaveErr))
		}
		if view.RefreshErr != "" {
			fmt.Fprintln(r.out, r.warn.Sprintf("  refresh failed: %s", view.RefreshErr))
		}
	}
}

// RenderPager prints the page button window, highlighting the current page.
func (r *Renderer) RenderPager(current, totalPages int) {
	window := PageWindow(current, totalPages)
	if len(window) == 0 {
		return
	}

	parts := make([]string, 0, len(window))
	for _, p := range window {
		if p == current {
			parts = append(parts, fmt.Sprintf("[%d]", p))
		} else {
			parts = append(parts, fmt.Sprintf("%d", p))
		}
	}
	fmt.Fprintf(r.out, "page %s of %d\n", strings.Join(parts, " "), totalPages)
}

func (r *Renderer) checklistSummary(c Checklist) string {
	marks := []struct {
		pass bool
	}{
		{c.ConsensusPass}, {c.TraderCountPass}, {c.PriceCeilingPass},
		{c.RRRatioPass}, {c.NoHedging}, {c.NoEliteConflict},
	}

	var sb strings.Builder
	for _, m := range marks {
		if m.pass {
			sb.WriteString(r.pass.Sprint("✓"))
		} else {
			sb.WriteString(r.fail.Sprint("✗"))
		}
	}
	return sb.String()
}

func rankLabel(rank int) string {
	if rank <= 0 {
		return "—"
	}
	return fmt.Sprintf("#%d", rank)
}
