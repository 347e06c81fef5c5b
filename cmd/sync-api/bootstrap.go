package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/SyncBox/config"
	"github.com/BearBump/SyncBox/internal/api/syncapi"
	"github.com/BearBump/SyncBox/internal/broker/kafka"
	"github.com/BearBump/SyncBox/internal/cache/rediscache"
	"github.com/BearBump/SyncBox/internal/notify"
	"github.com/BearBump/SyncBox/internal/services/query"
	"github.com/BearBump/SyncBox/internal/services/syncer"
	"github.com/BearBump/SyncBox/internal/storage/pgsync"
)

type syncAPIApp struct {
	ctx        context.Context
	cancel     context.CancelFunc
	opts       syncAPIOpts
	api        *syncapi.API
	dispatcher *notify.Dispatcher
	closers    []func()
}

func mustBootstrapSyncAPI() *syncAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.SyncBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8000"
	}
	rateLimit := int64(cfg.SyncBox.SyncRateLimitPerMinute)
	if rateLimit <= 0 {
		rateLimit = 30
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	rl := rediscache.NewRateLimiter(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)

	dispatcher := notify.NewDispatcher(producer, cfg.SyncBox.NotifyBufferSize)

	syncSvc := syncer.New(st, dispatcher)
	querySvc := query.New(st, rc, cfg.SyncBox.DownloadLimit)

	api := syncapi.New(syncSvc, querySvc, rl, st, rateLimit, time.Minute)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &syncAPIApp{
		ctx:        ctx,
		cancel:     cancel,
		opts:       syncAPIOpts{httpAddr: httpAddr},
		api:        api,
		dispatcher: dispatcher,
		closers: []func(){
			func() { _ = producer.Close() },
			func() { _ = rc.Close() },
			func() { _ = rl.Close() },
			st.Close,
		},
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgsync.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgsync.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *syncAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	for _, c := range a.closers {
		c()
	}
}

func (a *syncAPIApp) Run() error {
	return runSyncAPI(a.ctx, a.opts, a.api, a.dispatcher)
}
