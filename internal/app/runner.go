package app

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"go.uber.org/zap"

	clts "whaledeck/clients"
	"whaledeck/clients/whaleapi"
	"whaledeck/config"
)

// Build info - populated from embedded VCS info at init time
var (
	BuildCommit = "dev"
	BuildTime   = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					BuildCommit = setting.Value
				}
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	}
}

// Runner drives the dashboard: initialize the session, then fetch,
// transform, filter, and render each panel on a fixed cadence until the
// context is cancelled.
type Runner struct {
	logger   *zap.Logger
	clients  *clts.Clients
	cfg      *config.Config
	session  *Session
	renderer *Renderer

	signalFilters *FilterController
	playFilters   *FilterController

	signalsLatch QueryLatch
	groupsLatch  QueryLatch
}

func NewRunner(clients *clts.Clients, cfg *config.Config, session *Session) *Runner {
	logger := clients.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		logger:   logger,
		clients:  clients,
		cfg:      cfg,
		session:  session,
		renderer: NewRenderer(logger, os.Stdout, cfg.Render.MaxRows, cfg.Render.UseColor),
		signalFilters: NewFilterController(Defaults{
			Status:   "open",
			GameDate: cfg.Signals.DateFilter,
			Sort:     SortCreated,
			PageSize: cfg.WhalePlays.PageSize,
		}),
		playFilters: NewFilterController(Defaults{
			Status:   cfg.WhalePlays.Status,
			GameDate: "this_week",
			Sort:     SortConsensus,
			PageSize: cfg.WhalePlays.PageSize,
		}),
	}
}

// SignalFilters exposes the signal panel's filter controller.
func (r *Runner) SignalFilters() *FilterController { return r.signalFilters }

// PlayFilters exposes the whale-plays panel's filter controller.
func (r *Runner) PlayFilters() *FilterController { return r.playFilters }

// Run starts the session and renders the dashboard until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("starting dashboard",
		zap.String("buildCommit", BuildCommit),
		zap.String("buildTime", BuildTime),
		zap.Duration("pollInterval", r.cfg.Signals.PollInterval),
	)

	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	if user := r.session.Snapshot().User; user != nil {
		r.logger.Info("authenticated", zap.String("email", user.Email))
	}

	r.renderCycle(ctx)

	ticker := time.NewTicker(r.cfg.Signals.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner shutting down")
			return nil
		case <-ticker.C:
			r.renderCycle(ctx)
		}
	}
}

// ensureAuthenticated restores the stored session, falling back to a login
// with the configured credentials when no valid tokens survive.
func (r *Runner) ensureAuthenticated(ctx context.Context) error {
	if err := r.session.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	if r.session.Snapshot().Authenticated {
		return nil
	}

	email := r.cfg.Session.Email
	password := r.cfg.Session.Password
	if email == "" || password == "" {
		return fmt.Errorf("not authenticated and no credentials configured")
	}
	if err := r.session.Login(ctx, email, password); err != nil {
		if whaleapi.IsLocked(err) {
			return fmt.Errorf("account locked: %w", err)
		}
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// renderCycle fetches and renders every panel once. Individual fetch
// failures skip their panel and are logged; the cycle itself never fails.
func (r *Runner) renderCycle(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if meta, err := r.clients.WhaleAPI.Meta(fetchCtx); err != nil {
		r.logger.Warn("meta fetch failed", zap.Error(err))
	} else {
		r.renderer.RenderMeta(meta)
	}

	r.renderSignals(fetchCtx)
	r.renderGroups(fetchCtx)
	r.renderPlays(fetchCtx)
}

func (r *Runner) renderSignals(ctx context.Context) {
	f := r.signalFilters.Filters()

	query := whaleapi.SignalQuery{
		DateFilter: f.GameDate,
		Hours:      r.cfg.Signals.Hours,
	}
	if f.Sport != FilterAll {
		query.Sport = f.Sport
	} else if r.cfg.Signals.Sport != FilterAll {
		query.Sport = r.cfg.Signals.Sport
	}
	if f.BetType != FilterAll {
		query.BetType = f.BetType
	}

	token := r.signalsLatch.Commit(r.signalFilters.Query())

	raw, err := r.clients.WhaleAPI.Signals(ctx, query)
	if err != nil {
		r.logger.Warn("signals fetch failed", zap.Error(err))
		return
	}
	// A newer commit superseded this fetch while it was in flight.
	if !r.signalsLatch.Accept(token) {
		r.logger.Debug("discarding stale signals response")
		return
	}

	signals := TransformSignals(raw)
	SortSignals(signals, f.Sort)
	r.renderer.RenderSignals(signals)
}

func (r *Runner) renderGroups(ctx context.Context) {
	params := r.playFilters.Query()
	token := r.groupsLatch.Commit(params)

	resp, err := r.clients.WhaleAPI.GroupedWhaleBets(ctx, params)
	if err != nil {
		r.logger.Warn("grouped whale bets fetch failed", zap.Error(err))
		return
	}
	if !r.groupsLatch.Accept(token) {
		r.logger.Debug("discarding stale grouped response")
		return
	}

	f := r.playFilters.Filters()
	groups := FilterGroups(resp.Groups, f)
	SortGroups(groups, f.Sort)
	r.renderer.RenderGroups(groups)
}

func (r *Runner) renderPlays(ctx context.Context) {
	f := r.playFilters.Filters()
	params := r.playFilters.Query()
	params.Set("page_size", strconv.Itoa(r.cfg.WhalePlays.PageSize))

	page, err := r.clients.WhaleAPI.WhalePlays(ctx, params)
	if err != nil {
		r.logger.Warn("whale plays fetch failed", zap.Error(err))
		return
	}

	r.renderer.RenderPager(f.Page, page.TotalPages)
}

// ShowSignal renders the drill-down view for one signal: whale positions
// grouped by outcome, live consensus, journal state, and a markdown export.
// The positions fetch is optional enrichment; the view falls back to the
// signal's stored consensus when it fails.
func (r *Runner) ShowSignal(ctx context.Context, signalID int) error {
	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	raw, err := r.clients.WhaleAPI.Signals(ctx, whaleapi.SignalQuery{
		DateFilter: r.cfg.Signals.DateFilter,
		Hours:      r.cfg.Signals.Hours,
	})
	if err != nil {
		return fmt.Errorf("get signals: %w", err)
	}

	var sig *Signal
	for _, rs := range raw {
		if rs.ID == signalID {
			s := TransformSignal(rs)
			sig = &s
			break
		}
	}
	if sig == nil {
		return fmt.Errorf("signal %d not found", signalID)
	}

	journal := NewJournalStateMachine(r.logger, r.clients.WhaleAPI, signalID)
	journal.Open(ctx)

	consensus := Consensus{Percent: sig.Signal.ConsensusPercent}
	var positions []whaleapi.WhalePosition

	resp, err := r.clients.WhaleAPI.SignalPositions(ctx, signalID)
	if err != nil {
		r.logger.Warn("positions fetch failed", zap.Int("signalID", signalID), zap.Error(err))
	} else {
		positions = resp.Positions
		consensus = LiveConsensus(positions, sig.Pick.Side, sig.Signal.ConsensusPercent)
	}

	r.renderer.RenderSignals([]Signal{*sig})
	r.renderer.RenderPositions(GroupPositions(positions, sig.Pick.Side), consensus, sig.Pick.Side)
	r.renderer.RenderJournal(journal.View())

	markdown := BuildSignalMarkdown(*sig, positions, consensus)
	CopyToClipboard(r.logger, markdown)
	fmt.Fprintln(r.renderer.out, markdown)

	return nil
}

// TriggerRefresh asks the backend to rebuild the signal cache.
func (r *Runner) TriggerRefresh(ctx context.Context, sport string, topN int) error {
	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	result, err := r.clients.WhaleAPI.TriggerRefresh(ctx, sport, topN)
	if err != nil {
		return fmt.Errorf("trigger refresh: %w", err)
	}

	r.logger.Info("refresh triggered",
		zap.Bool("success", result.Success),
		zap.String("message", result.Message),
	)
	fmt.Fprintln(r.renderer.out, result.Message)
	return nil
}
