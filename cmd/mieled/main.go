package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nlowe/miele"
	"github.com/nlowe/miele/bridge"
	"github.com/nlowe/miele/config"
	mieleLog "github.com/nlowe/miele/log"
	"github.com/nlowe/miele/metrics"
	"github.com/nlowe/miele/mqtt"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "mieled.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("mieled failed", mieleLog.Error(err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err = configureLogging(cfg.Logging); err != nil {
		return err
	}

	log := mieleLog.ForComponent("mieled")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reporter, closeMetrics, err := configureMetrics(cfg.Metrics)
	if err != nil {
		return err
	}
	defer closeMetrics()

	decoder, err := newDecoder(cfg.Decoding, reporter)
	if err != nil {
		return err
	}

	log.With(slog.String("broker", cfg.MQTT.Broker)).Info("Connecting to mqtt")
	conn, err := configureMQTT(ctx, cfg.MQTT)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		log.Info("Disconnecting from mqtt")
		if err := conn.Disconnect(shutdownCtx); err != nil {
			log.With(mieleLog.Error(err)).Error("Failed to disconnect from mqtt")
		}
	}()

	opts := bridge.Options{
		TopicPrefix: cfg.MQTT.TopicPrefix,
		WriteOptions: mqtt.WriteOptions{
			QoS:    mqtt.QualityOfService(cfg.MQTT.QoS),
			Retain: cfg.MQTT.Retain,
		},
		ReadOptions: mqtt.ReadOptions{
			QoS:     mqtt.QualityOfService(cfg.MQTT.QoS),
			NoLocal: true,
		},
	}

	appliances := make([]*bridge.Appliance, 0, len(cfg.Appliances))
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		for _, a := range appliances {
			if err := a.Stop(shutdownCtx, conn); err != nil {
				log.With(slog.String("appliance", a.ID()), mieleLog.Error(err)).Warn("Failed to stop appliance")
			}
		}
	}()

	for _, ac := range cfg.Appliances {
		a, err := newAppliance(ac, decoder, opts)
		if err != nil {
			return err
		}

		if err = a.Start(ctx, conn, conn); err != nil {
			return fmt.Errorf("start appliance %s: %w", ac.ID, err)
		}

		appliances = append(appliances, a)
		log.With(slog.String("appliance", ac.ID), slog.String("type", ac.Type)).Info("Bridging appliance")
	}

	<-ctx.Done()
	log.Info("Shutting down")

	return nil
}

func newDecoder(cfg config.DecodingConfig, reporter miele.Reporter) (*miele.Decoder, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	return miele.NewDecoder(miele.WithReporter(reporter), miele.WithTimeParsePolicy(policy)), nil
}

func newAppliance(cfg config.ApplianceConfig, decoder *miele.Decoder, opts bridge.Options) (*bridge.Appliance, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("appliance %s: %w", cfg.ID, err)
	}

	return bridge.New(cfg.ID, registry, decoder, opts)
}

func configureLogging(cfg config.LoggingConfig) error {
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		mieleLog.To(slog.NewJSONHandler(os.Stderr, opts))
	default:
		mieleLog.To(slog.NewTextHandler(os.Stderr, opts))
	}

	return nil
}

// configureMetrics builds the reporter decode failures are sent to. Failures are always logged, and additionally
// exported to Prometheus and DogStatsD when those are configured.
func configureMetrics(cfg config.MetricsConfig) (miele.Reporter, func(), error) {
	log := mieleLog.ForComponent("metrics")

	reporters := miele.MultiReporter{miele.LogReporter(nil)}
	var closers []func()

	if cfg.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		p, err := metrics.NewPrometheusReporter(reg)
		if err != nil {
			return nil, nil, err
		}
		reporters = append(reporters, p)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			log.With(slog.String("listen", cfg.Listen)).Info("Serving prometheus metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.With(mieleLog.Error(err)).Error("Metrics server failed")
			}
		}()

		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			_ = srv.Shutdown(ctx)
		})
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.StatsdAddress != "" {
		hostname, _ := os.Hostname()

		s, client, err := metrics.DialStatsd(cfg.StatsdAddress, metrics.FormatTag("host", hostname))
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		reporters = append(reporters, s)

		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				log.With(mieleLog.Error(err)).Warn("Failed to close statsd client")
			}
		})
	}

	return reporters, closeAll, nil
}
