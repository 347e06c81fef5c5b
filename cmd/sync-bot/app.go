package main

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/BearBump/SyncBox/internal/broker/kafka"
	"github.com/BearBump/SyncBox/internal/broker/messages"
	"github.com/BearBump/SyncBox/internal/integrations/telegram"
	"github.com/BearBump/SyncBox/internal/services/reports"
)

type syncBotOpts struct {
	httpAddr    string
	chatID      int64
	pollTimeout time.Duration
	onListen    func(httpAddr string)

	consumer *kafka.Consumer
	tg       *telegram.Client
	reports  *reports.Service
}

type botStats struct {
	notificationsRelayed atomic.Int64
	commandsHandled      atomic.Int64
	consumerErrors       atomic.Int64
}

func runSyncBot(ctx context.Context, opts syncBotOpts) error {
	stats := &botStats{}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runBotHTTPServer(ctx, opts, stats)
	}()

	go runNotificationRelay(ctx, opts, stats)
	go runCommandLoop(ctx, opts, stats)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}

// runNotificationRelay читает события из Kafka и пересылает их в чат.
// Ошибка консьюмера — пауза и переподключение, не падение процесса.
func runNotificationRelay(ctx context.Context, opts syncBotOpts, stats *botStats) {
	slog.Info("notification relay started", "chat_id", opts.chatID)
	for {
		err := opts.consumer.ConsumeOrderNotifications(ctx, func(ev messages.OrderNotification) error {
			text := reports.NotificationText(ev)
			if text == "" {
				return nil
			}
			if err := opts.tg.SendMessage(ctx, opts.chatID, text); err != nil {
				// Телега недоступна — событие коммитим и идём дальше,
				// уведомления негарантированные.
				slog.Error("send notification", "order_number", ev.OrderNumber, "error", err.Error())
				return nil
			}
			stats.notificationsRelayed.Add(1)
			return nil
		})
		if ctx.Err() != nil {
			return
		}
		stats.consumerErrors.Add(1)
		slog.Error("kafka consume", "error", err.Error())

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// runCommandLoop — long polling getUpdates и ответы на команды.
func runCommandLoop(ctx context.Context, opts syncBotOpts, stats *botStats) {
	slog.Info("command loop started")
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := opts.tg.GetUpdates(ctx, offset, opts.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("get updates", "error", err.Error())
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil || !strings.HasPrefix(u.Message.Text, "/") {
				continue
			}

			reply, err := handleCommand(ctx, opts.reports, u.Message.Text)
			if err != nil {
				slog.Error("handle command", "text", u.Message.Text, "error", err.Error())
				reply = "❌ Ошибка при обработке команды"
			}
			if reply == "" {
				continue
			}
			if err := opts.tg.SendMessage(ctx, u.Message.Chat.ID, reply); err != nil {
				slog.Error("send reply", "chat_id", u.Message.Chat.ID, "error", err.Error())
				continue
			}
			stats.commandsHandled.Add(1)
		}
	}
}

func handleCommand(ctx context.Context, svc *reports.Service, text string) (string, error) {
	cmd, args, _ := strings.Cut(strings.TrimSpace(text), " ")
	// /report@SyncBoxBot и /report — одна команда.
	cmd, _, _ = strings.Cut(cmd, "@")

	switch cmd {
	case "/start":
		return reports.Welcome(), nil
	case "/help":
		return reports.Help(), nil
	case "/report":
		return svc.Summary(ctx)
	case "/orders":
		return svc.ActiveOrders(ctx)
	case "/drivers":
		return svc.Drivers(ctx)
	case "/sync":
		return svc.SyncStatus(ctx)
	case "/search":
		return svc.Search(ctx, args)
	case "/status":
		return svc.StatusByLeg(ctx)
	}
	return "", nil
}
