package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/devblac/tx-sentinel/internal/analyzer"
	"github.com/devblac/tx-sentinel/internal/config"
	"github.com/devblac/tx-sentinel/internal/health"
	"github.com/devblac/tx-sentinel/internal/logging"
	"github.com/devblac/tx-sentinel/internal/metrics"
	"github.com/devblac/tx-sentinel/internal/pipeline"
	"github.com/devblac/tx-sentinel/internal/server"
	"github.com/devblac/tx-sentinel/internal/storage"
	"github.com/spf13/cobra"
)

var (
	flagListen        string
	flagMetricsListen string
)

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "API listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagMetricsListen, "metrics", "", "Standalone metrics listen address (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logLevel := os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			logLevel = "info"
		}
		log := logging.NewWithLevel(logLevel)
		ctx := cmd.Context()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		listen := cfg.Server.Listen
		if flagListen != "" {
			listen = flagListen
		}
		metricsListen := cfg.Server.MetricsListen
		if flagMetricsListen != "" {
			metricsListen = flagMetricsListen
		}

		var store *storage.Store
		if cfg.Global.DBPath != "" {
			store, err = storage.Open(cfg.Global.DBPath)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()
		}

		st, err := buildStack(cfg)
		if err != nil {
			return err
		}

		mtr := metrics.Init()
		engine := analyzer.NewEngine(protocolTable(cfg))
		pipe := pipeline.New(st.registry, engine, store, mtr, log)

		checker := health.Checker{
			RPCPing: health.NewRPCChecker(st.evmClients, st.algodClients).Ping,
		}
		if store != nil {
			checker.DBPing = store.Ping
		}

		srv := server.New(pipe, checker, cfg.RequestTimeout(), log)
		httpSrv := server.Serve(listen, srv.Handler())
		log.Info("api server listening", "addr", listen, "networks", st.registry.Networks())

		var metricsSrv *http.Server
		if metricsListen != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			metricsSrv = server.Serve(metricsListen, mux)
			log.Info("metrics server listening", "addr", metricsListen)
		}

		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return httpSrv.Shutdown(shutdownCtx)
	},
}
