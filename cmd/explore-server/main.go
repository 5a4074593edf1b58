package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gridlume/electromap/explore"
	"github.com/gridlume/electromap/internal/api"
	"github.com/gridlume/electromap/internal/buildings"
	"github.com/gridlume/electromap/internal/geodata"
	"github.com/gridlume/electromap/internal/logging"
	"github.com/gridlume/electromap/internal/modeling"
	"github.com/gridlume/electromap/internal/observability"
	"github.com/gridlume/electromap/internal/runlog"
)

func main() {
	httpAddr := flag.String("http-addr", ":8080", "TCP address the exploration API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	modelingURL := flag.String("modeling-url", "http://localhost:5000", "Base URL of the modeling service")
	geodataURL := flag.String("geodata-url", "http://localhost:8081/countries", "Base URL of the geometry file server")
	overpassURL := flag.String("overpass-url", buildings.DefaultEndpoint, "Overpass API interpreter URL")
	redisAddr := flag.String("redis-addr", "", "Optional Redis address for the shared geometry cache")
	runlogDSN := flag.String("runlog-dsn", "", "Optional Postgres DSN for the model run log")
	sessionTTL := flag.Duration("session-ttl", api.DefaultSessionTTL, "Idle time before a session is reclaimed")
	dynamicDeny := flag.String("dynamic-deny", "", "Comma-separated countries with dynamic playback disabled")
	compatVillage := flag.Bool("compat-village", false, "Serialize zoomed footprints into local run payloads")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	geoOpts := []geodata.Option{geodata.WithCacheObserver(collector)}
	if *redisAddr != "" {
		geoOpts = append(geoOpts, geodata.WithRedis(
			redis.NewClient(&redis.Options{Addr: *redisAddr}), 0))
	}
	geo, err := geodata.NewSource(*geodataURL, 0, log, geoOpts...)
	if err != nil {
		log.Error(ctx, "failed to initialise geometry source", logging.Err(err))
		os.Exit(1)
	}

	runner := modeling.NewClient(*modelingURL, 0, log)
	footprints := buildings.NewClient(*overpassURL, 0, log)

	ctrlOpts := []explore.Option{explore.WithMetricsRecorder(collector)}
	if *compatVillage {
		ctrlOpts = append(ctrlOpts, explore.WithCompatVillagePayload(true))
	}
	if *dynamicDeny != "" {
		ctrlOpts = append(ctrlOpts, explore.WithDynamicDenyList(strings.Split(*dynamicDeny, ",")))
	}
	if *runlogDSN != "" {
		recorder, err := runlog.Open(*runlogDSN, log)
		if err != nil {
			log.Error(ctx, "failed to open run log", logging.Err(err))
			os.Exit(1)
		}
		defer recorder.Close()
		ctrlOpts = append(ctrlOpts, explore.WithRunRecorder(recorder))
	}

	sessions := api.NewManager(func() *explore.Controller {
		return explore.NewController(runner, geo, footprints, log, ctrlOpts...)
	}, *sessionTTL, log, collector)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	sessions.StartJanitor(janitorCtx, 10*time.Minute)

	server := &http.Server{
		Addr:    *httpAddr,
		Handler: otelhttp.NewHandler(api.NewServer(sessions, log, collector.Middleware()).Handler(), "explore-api"),
	}

	log.Info(ctx, "starting exploration API server", logging.String("addr", *httpAddr))
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "API server exited", logging.Err(err))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down exploration server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
