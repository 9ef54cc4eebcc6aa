package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	rest "github.com/danilovkiri/dk-go-earnhub/internal/api/rest/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/logger"
	"github.com/danilovkiri/dk-go-earnhub/internal/tracing"
)

func main() {
	wg := &sync.WaitGroup{}

	log := logger.InitLog()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// get configuration
	cfg, err := config.NewConfiguration()
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	if err := cfg.ParseFlags(flag.CommandLine, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("")
	}
	leveled, err := logger.WithLevel(log, cfg.LogConfig.Level)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	log = leveled

	// initialize tracing
	shutdownTracing, err := tracing.Init(cfg.TracingConfig, "earnhub")
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}

	// initialize server
	server, err := rest.InitServer(ctx, cfg, log, wg)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}

	// set a listener for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-done
		log.Info().Msg("server shutdown attempted")
		ctxTO, cancelTO := context.WithTimeout(ctx, 5*time.Second)
		defer cancelTO()
		if err := server.Shutdown(ctxTO); err != nil {
			log.Fatal().Err(err).Msg("server shutdown failed")
		}
		if err := shutdownTracing(ctxTO); err != nil {
			log.Error().Err(err).Msg("tracing shutdown failed")
		}
		cancel()
	}()

	// start up the server
	log.Info().Str("address", cfg.ServerConfig.ServerAddress).Str("backend", cfg.StorageConfig.Backend).Msg("server start attempted")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("")
	}
	wg.Wait()
	log.Info().Msg("server shutdown succeeded")
}
