// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/camunda"
	"internship-allocator/internal/common/config"
	"internship-allocator/internal/common/database"
	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/common/metrics"
	"internship-allocator/internal/common/observability"
	"internship-allocator/internal/common/validation"
	"internship-allocator/internal/store"
	"internship-allocator/pkg/registry"

	ai "internship-allocator/internal/workers/allocation/allocate-internships"
	gdr "internship-allocator/internal/workers/allocation/generate-diversity-report"
	mc "internship-allocator/internal/workers/allocation/match-candidates"
	uac "internship-allocator/internal/workers/allocation/update-allocation-config"
)

const serviceName = "internship-allocator"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewStructured("info", "console").Error("config load failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()
	log.Info("starting worker manager", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(serviceName, cfg.Observability, log, observability.Options{})
	if err != nil {
		fatal(log, "observability setup failed", err)
	}
	defer obs.Shutdown(context.Background())

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = database.Retry(ctx, log, "Zeebe connection", 10, 2*time.Second, func(context.Context) error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	})
	if err != nil {
		fatal(log, "zeebe unavailable", err)
	}
	defer zeebe.Close()

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fatal(log, "postgres setup failed", err)
	}
	defer pg.Close()
	if err := database.Retry(ctx, log, "PostgreSQL connection", 15, 2*time.Second, pg.Ping); err != nil {
		fatal(log, "postgres unavailable", err)
	}

	// --- Redis ---
	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	if err := database.Retry(ctx, log, "Redis connection", 10, time.Second, rdb.Ping); err != nil {
		fatal(log, "redis unavailable", err)
	}

	// --- Elasticsearch (optional) ---
	var sink gdr.ReportSink
	if cfg.Database.Elasticsearch.GetURL() != "" {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			fatal(log, "elasticsearch setup failed", err)
		}
		if err := database.Retry(ctx, log, "Elasticsearch connection", 10, 2*time.Second, es.Ping); err != nil {
			fatal(log, "elasticsearch unavailable", err)
		}
		sink = store.NewReportIndexer(es, cfg.Database.Elasticsearch.ReportIndex)
	} else {
		log.Warn("elasticsearch not configured, diversity reports will not be indexed", nil)
	}

	// --- Registry and validation ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		fatal(log, "activity registry load failed", err)
	}
	validator, err := validation.NewSchemaValidator(reg)
	if err != nil {
		fatal(log, "schema compilation failed", err)
	}

	// --- Stores ---
	batches := store.NewBatchCache(rdb.Client, cfg.Cache.KeyPrefix, cfg.Cache.BatchTTL)
	quotas := store.NewQuotaStore(rdb.Client, cfg.Cache.KeyPrefix)
	profiles := store.NewProfileRepository(pg.DB)
	runs := store.NewAllocationRepository(pg.DB)

	recorder := obs.Recorder(metrics.NewRecorder())
	tracer := obs.Tracer(serviceName)

	matchPipeline, err := allocation.NewPipeline(cfg.PipelineConfig(), log, recorder, tracer)
	if err != nil {
		fatal(log, "allocation pipeline rejected configuration", err)
	}

	handlers := map[string]camunda.JobHandler{
		mc.TaskType: mc.NewHandler(mc.LoadConfig(cfg), mc.Dependencies{
			Pipeline:  matchPipeline,
			Profiles:  profiles,
			Batches:   batches,
			Validator: validator,
			Commands:  zeebe,
			Observer:  obs,
		}, log),
		ai.TaskType: ai.NewHandler(ai.LoadConfig(cfg), ai.Dependencies{
			Batches:   batches,
			Overrides: quotas,
			Runs:      runs,
			Recorder:  recorder,
			Tracer:    tracer,
			Validator: validator,
			Commands:  zeebe,
			Observer:  obs,
		}, log),
		gdr.TaskType: gdr.NewHandler(gdr.LoadConfig(cfg), gdr.Dependencies{
			Runs:      runs,
			Reports:   allocation.NewReportGenerator(nil, log),
			Sink:      sink,
			Validator: validator,
			Commands:  zeebe,
			Observer:  obs,
		}, log),
		uac.TaskType: uac.NewHandler(uac.LoadConfig(cfg), uac.Dependencies{
			Store:     quotas,
			Validator: validator,
			Commands:  zeebe,
			Observer:  obs,
		}, log),
	}

	var workers []*camunda.CamundaWorker
	for taskType, handler := range handlers {
		if _, ok := reg.Find(taskType); !ok {
			log.Warn("task type missing from activity registry", map[string]interface{}{"taskType": taskType})
		}
		w := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log)
		if w != nil {
			workers = append(workers, w)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Observability.MetricsAddress,
		Handler:           healthMux(zeebe, pg, rdb),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server stopped", map[string]interface{}{"error": err.Error()})
		}
	}()

	log.Info("workers running", map[string]interface{}{"count": len(workers)})
	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("health server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("worker manager stopped", nil)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthMux(zeebe *camunda.Client, pg, rdb pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := http.StatusOK
		for name, check := range map[string]func(context.Context) error{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
		} {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		writeJSON(w, status, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err.Error()})
	_ = log.Sync()
	os.Exit(1)
}
