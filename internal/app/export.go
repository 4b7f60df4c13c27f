package app

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"whaledeck/clients/whaleapi"
)

const marketBaseURL = "https://polymarket.com/event"

// BuildSignalMarkdown renders a signal as shareable Markdown: title, pick,
// metrics table, whale position list, checklist, source link. The consensus
// row carries the live-derived asterisk when position data overrode the
// stored percent.
func BuildSignalMarkdown(sig Signal, positions []whaleapi.WhalePosition, consensus Consensus) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s\n\n", matchupTitle(sig.Matchup, sig.EventTitle)))
	sb.WriteString(fmt.Sprintf("**Pick:** %s @ %.2f¢", FormatLineDisplay(sig.Pick.Side, sig.MarketTitle), sig.Pick.EntryPrice*100))
	if sig.Pick.CurrentPrice != sig.Pick.EntryPrice {
		sb.WriteString(fmt.Sprintf(" (now %.2f¢)", sig.Pick.CurrentPrice*100))
	}
	sb.WriteString("\n\n")

	sb.WriteString("| Metric | Value |\n|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Sport | %s |\n", sig.Sport))
	sb.WriteString(fmt.Sprintf("| Bet type | %s |\n", sig.BetType))
	sb.WriteString(fmt.Sprintf("| Consensus | %s |\n", consensus.String()))
	sb.WriteString(fmt.Sprintf("| Whales | %d |\n", sig.Signal.WhaleCount))
	sb.WriteString(fmt.Sprintf("| Volume | $%.0f |\n", sig.Signal.TotalVolume))
	sb.WriteString(fmt.Sprintf("| Signal score | %.1f |\n", sig.Signal.SignalScore))
	sb.WriteString(fmt.Sprintf("| Tier | %s |\n", tierLabel(sig.Signal.Tier)))
	sb.WriteString(fmt.Sprintf("| R/R | %.2f |\n\n", sig.Signal.RRRatio))

	if len(positions) > 0 {
		sb.WriteString("**Whale positions:**\n")
		for _, p := range positions {
			sb.WriteString(fmt.Sprintf("- %s: %s $%.0f @ %.2f¢\n",
				whaleName(p), p.Outcome, p.CurrentValue, p.AvgPrice*100))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("**Checklist:**\n")
	sb.WriteString(checklistLine("Consensus ≥ 80%", sig.Checklist.ConsensusPass))
	sb.WriteString(checklistLine("Traders ≥ 3", sig.Checklist.TraderCountPass))
	sb.WriteString(checklistLine("Entry ≤ 55¢", sig.Checklist.PriceCeilingPass))
	sb.WriteString(checklistLine("R/R ≥ 1.0", sig.Checklist.RRRatioPass))
	sb.WriteString(checklistLine("No hedging", sig.Checklist.NoHedging))
	sb.WriteString(checklistLine("No elite conflict", sig.Checklist.NoEliteConflict))
	sb.WriteString("\n")

	if sig.EventSlug != "" {
		sb.WriteString(fmt.Sprintf("[Source](%s/%s)\n", marketBaseURL, sig.EventSlug))
	}

	if consensus.Live {
		sb.WriteString("\n\\* live-derived from current whale positions\n")
	}

	return sb.String()
}

// BuildGroupMarkdown renders a grouped whale bet as shareable Markdown.
func BuildGroupMarkdown(group whaleapi.GroupedWhaleBet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s — %s\n\n", group.EventTitle, group.Direction))
	sb.WriteString(fmt.Sprintf("**Primary line:** %s\n\n",
		FormatLineDisplay(group.PrimaryLine.Outcome, group.PrimaryLine.MarketTitle)))

	sb.WriteString("| Metric | Value |\n|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Sport | %s |\n", group.Sport))
	sb.WriteString(fmt.Sprintf("| Bet type | %s |\n", group.BetType))
	sb.WriteString(fmt.Sprintf("| Consensus | %.0f%% |\n", group.CombinedConsensusPct))
	sb.WriteString(fmt.Sprintf("| Unique whales | %d |\n", group.UniqueWhaleCount))
	sb.WriteString(fmt.Sprintf("| Volume | $%.0f |\n", group.TotalVolume))
	sb.WriteString(fmt.Sprintf("| Avg entry | %.2f¢ |\n\n", group.PrimaryLine.AvgEntry*100))

	if len(group.OtherLines) > 0 {
		sb.WriteString("**Other lines:**\n")
		for _, line := range group.OtherLines {
			sb.WriteString(fmt.Sprintf("- %s (%d whales, $%.0f)\n",
				FormatLineDisplay(line.Outcome, line.MarketTitle), line.WhaleCount, line.Volume))
		}
		sb.WriteString("\n")
	}

	if group.EventSlug != "" {
		sb.WriteString(fmt.Sprintf("[Source](%s/%s)\n", marketBaseURL, group.EventSlug))
	}

	return sb.String()
}

// CopyToClipboard writes the export text to the system clipboard. Failures
// are logged only; copying is a convenience, never a critical path.
func CopyToClipboard(logger *zap.Logger, text string) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := clipboard.WriteAll(text); err != nil {
		logger.Warn("clipboard write failed", zap.Error(err))
	}
}

func matchupTitle(m Matchup, fallback string) string {
	if m.Home != "" {
		return fmt.Sprintf("%s @ %s", m.Away, m.Home)
	}
	if m.Away != "" {
		return m.Away
	}
	return fallback
}

func tierLabel(tier *int) string {
	if tier == nil {
		return "—"
	}
	return fmt.Sprintf("%d", *tier)
}

func checklistLine(label string, pass bool) string {
	mark := "✅"
	if !pass {
		mark = "❌"
	}
	return fmt.Sprintf("- %s %s\n", mark, label)
}

func whaleName(p whaleapi.WhalePosition) string {
	if p.Username != "" {
		if p.Rank > 0 {
			return fmt.Sprintf("%s (#%d)", p.Username, p.Rank)
		}
		return p.Username
	}
	return shortWallet(p.TraderWallet)
}

// shortWallet truncates long wallet addresses for display.
func shortWallet(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "…" + s[len(s)-6:]
}
