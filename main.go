package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	clts "whaledeck/clients"
	"whaledeck/clients/tokenstore"
	"whaledeck/config"
	"whaledeck/internal/app"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (env vars take precedence)")
	showSignal := flag.Int("signal", 0, "render the drill-down view for one signal ID and exit")
	refresh := flag.Bool("refresh", false, "trigger a backend signal refresh and exit")
	refreshSport := flag.String("sport", "", "sport scope for -refresh (empty = all sports)")
	refreshTopN := flag.Int("top", 0, "whale count for -refresh (0 = backend default)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load config from the YAML file if given, layered under env vars.
	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			logger.Fatal("failed to load config file", zap.String("path", *configPath), zap.Error(err))
		}
	} else {
		cfg = config.Load()
	}
	logger.Info("starting whaledeck", zap.Bool("isProd", cfg.IsProd))

	if result := cfg.Validate(); !result.Valid {
		for _, verr := range result.Errors {
			logger.Error("config error", zap.String("field", verr.Field), zap.String("message", verr.Message))
		}
		logger.Fatal("invalid configuration")
	}

	store, err := tokenstore.NewSQLiteStore(logger, cfg.Session.TokenStorePath)
	if err != nil {
		logger.Fatal("failed to open token store", zap.Error(err))
	}

	session := app.NewSession(logger, store, cfg.Session.RefreshInterval)

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg, store, session)
	defer clients.Close()

	session.AttachAPI(clients.WhaleAPI)
	defer session.Close()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runner := app.NewRunner(clients, cfg, session)

	switch {
	case *showSignal > 0:
		err = runner.ShowSignal(ctx, *showSignal)
	case *refresh:
		err = runner.TriggerRefresh(ctx, *refreshSport, *refreshTopN)
	default:
		err = runner.Run(ctx)
	}
	if err != nil {
		logger.Fatal("runner failed", zap.Error(err))
	}
}
