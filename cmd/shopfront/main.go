package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopfront/internal/config"
	"shopfront/internal/notify"
	"shopfront/internal/ratelimit"
	"shopfront/internal/redisx"
	"shopfront/internal/repos"
	"shopfront/internal/server"
	"shopfront/internal/services"
	"shopfront/internal/token"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if cfg.SeedDemo {
		if err := repos.Seed(db, cfg.BcryptCost); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared state: Redis when configured, else process memory.
	var (
		limits  ratelimit.Store
		revoked token.Blocklist
	)
	if cfg.RedisAddr != "" {
		rdb, err := redisx.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal(err)
		}
		defer rdb.Close()
		limits = ratelimit.NewRedisStore(rdb)
		revoked = token.NewRedisBlocklist(rdb)
		log.Printf("[redis] rate limits and token blocklist -> %s", cfg.RedisAddr)
	} else {
		mem := ratelimit.NewMemoryStore()
		go sweep(ctx, mem, max(cfg.APIRateWindow, cfg.AuthRateWindow))
		limits = mem
		revoked = token.NewMemoryBlocklist()
	}

	sender, err := notify.NewSender(cfg)
	if err != nil {
		log.Fatalf("notify: %v", err)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.NotifyQueueSize)

	app := server.New(server.Deps{
		Config:      cfg,
		DB:          db,
		Services:    services.NewRegistry(db, cfg, revoked, dispatcher),
		Limits:      limits,
		LoginLimit:  5,
		LoginWindow: 10 * time.Minute,
	})

	go func() {
		<-ctx.Done()
		log.Printf("[shutdown] draining connections")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Printf("[shutdown] server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[server] %v", err)
	}

	cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dispatcher.Close(cctx); err != nil {
		log.Printf("[shutdown] notify: %v", err)
	}
}

// sweep drops expired rate-limit windows so idle clients do not pin memory.
func sweep(ctx context.Context, s *ratelimit.MemoryStore, window time.Duration) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.Sweep(window, now)
		}
	}
}
