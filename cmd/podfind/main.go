package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"podfin/config"
	"podfin/core/state"
	"podfin/gateway"
	"podfin/native/auction"
	"podfin/native/percent"
	"podfin/native/stream"
	"podfin/observability"
	"podfin/observability/logging"
	"podfin/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("PODFIN_ENV"))
	logger := logging.Setup("podfind", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	for _, module := range cfg.PausedModules {
		if err := manager.SetPaused(module, true); err != nil {
			logger.Error("Failed to pause module", slog.String("module", module), slog.Any("error", err))
			os.Exit(1)
		}
	}

	vault, err := config.ParseAddress(cfg.VaultAddress)
	if err != nil {
		logger.Error("Invalid vault address", slog.Any("error", err))
		os.Exit(1)
	}
	pool, err := config.ParseAddress(cfg.ClaimingPoolAddress)
	if err != nil {
		logger.Error("Invalid claiming pool address", slog.Any("error", err))
		os.Exit(1)
	}
	authority, err := config.ParseAddress(cfg.AuthorityAddress)
	if err != nil {
		logger.Error("Invalid authority address", slog.Any("error", err))
		os.Exit(1)
	}

	emitter := observability.NewEmitterHook(nil, logging.Module(logger, "events"))

	streams := stream.NewEngine()
	streams.SetState(manager)
	streams.SetVault(vault)
	streams.SetPauser(manager)
	streams.SetEmitter(emitter)

	auctions := auction.NewEngine()
	auctions.SetState(manager)
	auctions.SetVault(vault)
	auctions.SetAuthority(authority)
	auctions.SetPauser(manager)
	auctions.SetEmitter(emitter)
	auctions.SetShareMaxima(
		new(big.Int).Mul(percent.Point, big.NewInt(cfg.MaxCreatorSharePoints)),
		new(big.Int).Mul(percent.Point, big.NewInt(cfg.MaxSharingSharePoints)),
	)
	if pool != ([20]byte{}) {
		if err := auctions.SetClaimingPool(authority, pool); err != nil {
			logger.Error("Failed to configure claiming pool", slog.Any("error", err))
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           gateway.NewServer(streams, auctions, logging.Module(logger, "gateway")).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Gateway listening", slog.String("address", cfg.ListenAddress))
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Shutdown failed", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Gateway failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
