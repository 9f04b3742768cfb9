package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nodeforge/ember/internal/bindings"
	"github.com/nodeforge/ember/internal/config"
	"github.com/nodeforge/ember/internal/converge"
	"github.com/nodeforge/ember/internal/dsl"
	"github.com/nodeforge/ember/internal/providers/remotefile"
	"github.com/nodeforge/ember/internal/report"
	"github.com/nodeforge/ember/internal/resource"
	"github.com/nodeforge/ember/internal/script"
)

var flagWatch bool

var convergeCmd = &cobra.Command{
	Use:   "converge <recipe.lua>",
	Short: "Apply a recipe's declared resources until the host matches it",
	Args:  cobra.ExactArgs(1),
	RunE:  runConverge,
}

func init() {
	convergeCmd.Flags().BoolVar(&flagWatch, "watch", false, "re-run convergence whenever the recipe file changes")
}

func runConverge(cmd *cobra.Command, args []string) error {
	recipePath := args[0]

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sink, stop, err := buildSink(cfg)
	if err != nil {
		return err
	}
	defer stop()

	source := bindings.FileRecipeSource{Path: recipePath}

	runOnce := func(ctx context.Context) error {
		summary, err := convergeOnce(ctx, source, cfg, sink)
		if err != nil {
			return err
		}
		if summary.Aborted {
			return fmt.Errorf("run %s aborted: %w", summary.RunID, summary.Err)
		}
		log.Info().Str("run_id", summary.RunID).Int("reports", len(summary.Reports)).Msg("converge: run complete")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	if err := runOnce(ctx); err != nil {
		return err
	}
	if !flagWatch {
		return nil
	}

	changed := make(chan struct{}, 1)
	abs, err := filepath.Abs(recipePath)
	if err != nil {
		abs = recipePath
	}
	watcher, err := config.NewRecipeWatcher([]string{abs}, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("starting recipe watcher: %w", err)
	}
	defer watcher.Stop()

	log.Info().Str("path", abs).Msg("converge: watching for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			if err := runOnce(ctx); err != nil {
				log.Error().Err(err).Msg("converge: re-run failed, continuing to watch")
			}
		}
	}
}

func convergeOnce(ctx context.Context, source bindings.RecipeSource, cfg config.Config, sink report.Sink) (converge.Summary, error) {
	text, err := source.Load(ctx)
	if err != nil {
		return converge.Summary{}, fmt.Errorf("reading recipe: %w", err)
	}

	host := script.NewLuaHost()
	defer host.Close()

	if err := dsl.LoadPrelude(host); err != nil {
		return converge.Summary{}, err
	}

	registry := resource.NewRegistry()
	rt := dsl.NewRuntime(host, registry)

	if cache, err := remotefile.OpenETagCache(filepath.Join(cfg.StateDir, "remote_file_etags.db")); err == nil {
		rt.ETagCache = cache
		defer cache.Close()
	} else {
		log.Warn().Err(err).Msg("converge: remote_file ETag cache unavailable, remote_file resource disabled")
	}

	if err := rt.BindAll(); err != nil {
		return converge.Summary{}, err
	}

	if err := host.EvalRecipe(ctx, text); err != nil {
		return converge.Summary{}, fmt.Errorf("evaluating recipe: %w", err)
	}

	conv := converge.New(registry, sink)
	summary := conv.Run(ctx)
	registry.Clear()
	return summary, nil
}

func buildSink(cfg config.Config) (report.Sink, func(), error) {
	sinks := report.MultiSink{report.ConsoleSink{}}
	stops := []func(){}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics := report.NewMetricsSink(reg)
		sinks = append(sinks, metrics)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("converge: metrics server failed")
			}
		}()
		stops = append(stops, func() { _ = srv.Close() })
	}

	if cfg.ReportAddr != "" {
		hub := report.NewHub()
		go hub.Run()
		sinks = append(sinks, hub)

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.HandleWebSocket)
		srv := &http.Server{Addr: cfg.ReportAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("converge: report server failed")
			}
		}()
		stops = append(stops, func() { _ = srv.Close() })
	}

	return sinks, func() {
		for _, stop := range stops {
			stop()
		}
	}, nil
}
