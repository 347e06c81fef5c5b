package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BearBump/SyncBox/internal/api/syncapi"
	"github.com/BearBump/SyncBox/internal/notify"
)

type syncAPIOpts struct {
	httpAddr string
	onListen func(httpAddr string)
}

func runSyncAPI(ctx context.Context, opts syncAPIOpts, api *syncapi.API, dispatcher *notify.Dispatcher) error {
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	dispatcher.Start(ctx)

	srv := &http.Server{Handler: api.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("sync API listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
