package main

import (
	"context"

	"github.com/joho/godotenv"

	"chatdb/internal/app"
	"chatdb/pkg/config"
	"chatdb/pkg/logger"
	"chatdb/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")
	addrVal, uriVal, cfgVal, setFlags := config.ParseCommandFlags()

	// Resolve config path (file flag wins over env)
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		logger.Init()
		shutdown.Abort("failed to load config", err)
	}
	logger.InitWithLevel(cfg.Logging.Level, cfg.Logging.Format)

	// flags win over config/env when provided explicitly
	eff := config.EffectiveConfigResult{Config: cfg}
	if setFlags["addr"] {
		eff.Addr = addrVal
		eff.Source = "flags"
	} else {
		eff.Addr = cfg.Addr()
	}
	if setFlags["uri"] {
		eff.URI = uriVal
		eff.Source = "flags"
	} else {
		eff.URI = cfg.Storage.URI
	}
	if eff.Source == "" {
		if envUsed {
			eff.Source = "env"
		} else {
			eff.Source = "config"
		}
	}

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err)
	}
	defer a.Close()

	ctx, stop := shutdown.Notify(context.Background())
	defer stop()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err)
	}
	logger.Info("shutdown_complete")
}
