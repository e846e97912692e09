package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/wlvchandler/rollup-settlement-core/api"
	"github.com/wlvchandler/rollup-settlement-core/database"
	"github.com/wlvchandler/rollup-settlement-core/ledger"
	"github.com/wlvchandler/rollup-settlement-core/recorder"
	"github.com/wlvchandler/rollup-settlement-core/settlement"
	"github.com/wlvchandler/rollup-settlement-core/types"
)

// Version will be set at build time
var Version = "development"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}

	Logger := slog.New(tint.NewHandler(os.Stderr, nil))
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level: slog.LevelDebug,
		}),
	))

	Logger.Info("Starting settlementd ("+Version+")",
		"Go Version", runtime.Version(),
		"Operating System", runtime.GOOS,
		"Architecture", runtime.GOARCH)

	hostBlockIntervalSeconds, err := strconv.ParseUint(envOr("HOST_BLOCK_INTERVAL_SECONDS", "12"), 10, 64)
	if err != nil {
		log.Fatalf("failed to parse HOST_BLOCK_INTERVAL_SECONDS: %v", err)
	}

	db, err := database.NewDatabase(database.DatabaseOpts{
		URI:          os.Getenv("DATABASE_URI"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		Logger:       Logger.With("component", "database"),
	})
	if err != nil {
		log.Fatalf("failed to create database: %v", err)
	}
	if err := db.CreateIndexes(context.Background()); err != nil {
		log.Fatalf("failed to create database indexes: %v", err)
	}

	bridge := ledger.NewMemoryBridge(types.NewAmount(0))
	clock := ledger.NewMemoryClock(0)

	eng := settlement.New(settlement.Opts{
		Bridge:   bridge,
		Clock:    clock,
		Treasury: common.HexToAddress(os.Getenv("TREASURY_ADDRESS")),
	})

	rec := recorder.NewRecorder(recorder.Opts{
		Settlement: eng,
		Database:   db,
		Logger:     Logger.With("component", "recorder"),
	})

	server, err := api.NewServer(api.ServerOpts{
		Logger:     Logger.With("component", "api-server"),
		Database:   db,
		Settlement: eng,
		Port:       envOr("API_PORT", "8080"),
	})
	if err != nil {
		log.Fatalf("failed to create api server: %v", err)
	}

	go server.StartServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 2)
	go func() {
		errChan <- rec.Run(ctx)
	}()
	go func() {
		errChan <- tickHostClock(ctx, clock, time.Duration(hostBlockIntervalSeconds)*time.Second)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Printf("component error: %v", err)
		}
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)
		fmt.Println("Shutting down gracefully...")
		cancel()
		<-errChan
	}
}

// tickHostClock advances clock once per interval, standing in for a real
// chain-head subscription: the settlement engine only needs a monotonic
// block counter, not any particular host chain's actual blocks.
func tickHostClock(ctx context.Context, clock *ledger.MemoryClock, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			clock.Advance(1)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
