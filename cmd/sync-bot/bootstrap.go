package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/SyncBox/config"
	"github.com/BearBump/SyncBox/internal/broker/kafka"
	"github.com/BearBump/SyncBox/internal/integrations/telegram"
	"github.com/BearBump/SyncBox/internal/services/reports"
	"github.com/BearBump/SyncBox/internal/storage/pgsync"
)

type syncBotApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    syncBotOpts
	closers []func()
}

func mustBootstrapSyncBot() *syncBotApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	if cfg.Telegram.Token == "" {
		panic("telegram token is required")
	}
	if cfg.Telegram.ChatID == 0 {
		panic("telegram chat_id is required")
	}

	consumerGroup := cfg.SyncBox.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "sync-bot"
	}
	topic := cfg.Kafka.OrderNotificationsTopicName
	if topic == "" {
		topic = kafka.TopicOrderNotifications
	}
	httpAddr := cfg.SyncBox.BotHTTPAddr
	if httpAddr == "" {
		httpAddr = ":8081"
	}
	pollTimeout := time.Duration(cfg.SyncBox.BotPollTimeoutSeconds) * time.Second
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	tg := telegram.New(cfg.Telegram.BaseURL, cfg.Telegram.Token)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &syncBotApp{
		ctx:    ctx,
		cancel: cancel,
		opts: syncBotOpts{
			httpAddr:    httpAddr,
			chatID:      cfg.Telegram.ChatID,
			pollTimeout: pollTimeout,
			consumer:    consumer,
			tg:          tg,
			reports:     reports.New(st),
		},
		closers: []func(){
			func() { _ = consumer.Close() },
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

func (a *syncBotApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for _, c := range a.closers {
		c()
	}
}

func (a *syncBotApp) Run() error {
	return runSyncBot(a.ctx, a.opts)
}
