// Package main is the entry point for the conversation simulator.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/analytics"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/config"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/counterpart"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/handler"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/middleware"
	natsclient "github.com/WhiteTorn/Wandero-Client-Simulation/internal/nats"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/nlg"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/persona"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/registry"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/scheduler"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/sim"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/transcript"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/transport"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/tracing"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting conversation simulator",
		zap.String("mode", string(cfg.Mode)),
		zap.String("personas", cfg.PersonaSelection),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "wandero-client-simulator", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// NATS is optional: without it the event stream falls back to local
	// aggregation only and mail runs over the loopback transport.
	var natsClient *natsclient.Client
	var streams *natsclient.StreamManager
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		streams = natsclient.NewStreamManager(natsClient)
		if err := streams.EnsureStreams(ctx); err != nil {
			log.Error("failed to ensure streams", zap.Error(err))
			os.Exit(1)
		}
	}

	var sink analytics.Sink
	if streams != nil {
		sink = analytics.NewStreamSink(streams)
	}
	recorder := analytics.NewRecorder(256, sink, log)

	var nlgClient nlg.Client
	switch {
	case cfg.AnthropicAPIKey != "":
		nlgClient, err = nlg.NewAnthropicClient(cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		nlgClient, err = nlg.NewOpenAIClient(cfg.OpenAIAPIKey)
	}
	if err != nil {
		log.Warn("failed to create NLG client, using templates", zap.Error(err))
		nlgClient = nil
	}
	drafter := nlg.NewDrafter(nlgClient, cfg.NLGModel, 0.7)

	catalog := persona.NewMemoryCatalog(persona.Seed())
	if cfg.PersonaFile != "" {
		catalog, err = persona.LoadFile(cfg.PersonaFile)
		if err != nil {
			log.Error("failed to load persona catalog", zap.Error(err))
			os.Exit(1)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Info("behavioral seed", zap.Int64("seed", seed))

	delays := scheduler.NewDelayPlanner(cfg.ModeScale(), cfg.MaxDelay, seed)

	var mail transport.Transport
	if cfg.CounterpartAddress == "loopback" || streams == nil {
		bot := counterpart.NewBot(counterpart.Company{
			Name:    cfg.CompanyName,
			Country: cfg.CompanyCountry,
			Context: cfg.CompanyContext,
		})
		mail = transport.NewLoopback(bot, cfg.CounterpartAddress)
	} else {
		mail = transport.NewNATS(streams)
	}

	store, err := transcript.NewStore(cfg.TranscriptDir)
	if err != nil {
		log.Error("failed to open transcript store", zap.Error(err))
		os.Exit(1)
	}

	reg := registry.New(log)
	runner := sim.NewRunner(sim.Config{
		Recipient:    cfg.CounterpartAddress,
		PollInterval: delays.Scale(cfg.PollInterval),
		Seed:         seed,
	}, reg, catalog, drafter, mail, recorder, store, delays, log)

	sched := scheduler.New(scheduler.Config{
		Workers:        cfg.WorkerPool,
		MaxInflight:    cfg.MaxInflight,
		RetryCeiling:   cfg.RetryCeiling,
		FallbackDelay:  delays.Scale(30 * time.Second),
		BackoffCeiling: delays.Scale(10 * time.Minute),
	}, runner.Step, runner.Hooks(), log)
	runner.Bind(sched)

	// Resume persisted sessions; spawn a fresh cohort only on a cold start so
	// a restart does not double the population.
	persisted, err := store.LoadAll()
	if err != nil {
		log.Warn("some transcripts could not be loaded", zap.Error(err))
	}
	runner.Restore(persisted)

	if len(reg.Live()) == 0 {
		selected, err := catalog.Select(cfg.PersonaSelection)
		if err != nil {
			log.Error("invalid persona selection", zap.Error(err))
			os.Exit(1)
		}
		for _, p := range selected {
			for i := 0; i < cfg.SessionsPer; i++ {
				runner.Spawn(p)
			}
		}
	}

	healthHandler := handler.NewHealthHandler(natsClient)
	sessionHandler := handler.NewSessionHandler(reg, runner, log)
	personaHandler := handler.NewPersonaHandler(catalog, runner, log)
	analyticsHandler := handler.NewAnalyticsHandler(recorder, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Cancel)
			})
		})

		r.Route("/personas", func(r chi.Router) {
			r.Get("/", personaHandler.List)
			r.Post("/{id}/sessions", personaHandler.Spawn)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", analyticsHandler.Summary)
			r.Get("/sessions/{id}", analyticsHandler.Session)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		recorder.Run(gctx)
		return nil
	})

	g.Go(func() error {
		err := sched.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	g.Go(func() error {
		log.Info("ops server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("simulator exited with error", zap.Error(err))
	}
	recorder.Wait()

	summary := recorder.Summary()
	log.Info("run summary",
		zap.Int("sessions", summary.Sessions),
		zap.Int("terminal", summary.Terminal),
		zap.Float64("mean_response_seconds", summary.MeanResponseSeconds),
	)
	log.Info("simulator stopped")
}
