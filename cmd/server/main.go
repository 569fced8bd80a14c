package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vancelk/switchboard/core/telephony"
	"github.com/vancelk/switchboard/core/tools"
	"github.com/vancelk/switchboard/internal/config"
	"github.com/vancelk/switchboard/internal/httpserver"
	"github.com/vancelk/switchboard/internal/transcripts"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	var controllerOpts []telephony.CallControllerOption
	if cfg.TransferNumber != "" {
		controllerOpts = append(controllerOpts, telephony.WithTransferNumber(cfg.TransferNumber))
	}
	controller := telephony.NewCallController(cfg.TwilioAccountSID, cfg.TwilioAuthToken, controllerOpts...)

	registry, err := tools.NewRegistry(tools.Catalog(controller))
	if err != nil {
		log.Fatalf("invalid tool catalog: %v", err)
	}

	store := transcripts.NewStore()
	srv := httpserver.New(cfg, store, registry, controller)

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- srv.Start(cfg.HTTPAddress)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
