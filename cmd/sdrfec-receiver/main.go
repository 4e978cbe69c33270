// Command sdrfec-receiver reassembles FEC protected I/Q superframes from UDP
// and writes the samples out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sdrfec/sdrfec/sdrfec"
	"github.com/sdrfec/sdrfec/fec"
	"github.com/sdrfec/sdrfec/internal/iq"
	"github.com/sdrfec/sdrfec/internal/logging"
	"github.com/sdrfec/sdrfec/internal/metrics"
)

func main() {
	cfg, dump, err := parseConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if dump {
		out, err := tomlSettings.Marshal(&cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "receiver error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	log := logging.New(level, format, os.Stderr)
	logging.SetDefault(log)

	scheme, err := fec.ParseScheme(cfg.Scheme)
	if err != nil {
		return err
	}
	statsEvery, err := time.ParseDuration(cfg.StatsEvery)
	if err != nil {
		return fmt.Errorf("stats period: %w", err)
	}
	rx, err := sdrfec.NewReceiver(sdrfec.ReceiverOptions{
		Options: sdrfec.Options{
			OriginalBlocks: cfg.OriginalBlocks,
			FECBlocks:      cfg.FECBlocks,
			DecoderSlots:   cfg.DecoderSlots,
			Scheme:         scheme,
			Logger:         log.With(logging.String("component", "buffer")),
		},
		IngressRing:    cfg.IngressRing,
		ReadBuffer:     cfg.ReadBuffer,
		MulticastGroup: cfg.MulticastGroup,
		Interface:      cfg.Interface,
	})
	if err != nil {
		return err
	}
	out, err := openOutput(cfg.Output, cfg.Format)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		srv := metricsServer(cfg.MetricsAddr, rx)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if statsEvery > 0 {
		g.Go(func() error {
			logStats(ctx, log, rx, statsEvery)
			return nil
		})
	}

	serveCtx, cancelServe := context.WithCancel(ctx)
	defer cancelServe()
	var writeErr error
	log.Info("receiving", logging.String("listen", cfg.Listen), logging.Int("k", cfg.OriginalBlocks),
		logging.String("scheme", scheme.String()), logging.Int("frame_bytes", rx.FrameBytes()))
	g.Go(func() error {
		err := rx.ListenAndServe(serveCtx, cfg.Listen, func(samples []byte, res sdrfec.Result) {
			if log.Enabled(logging.Debug) {
				p, _ := iq.PowerDBFS(samples)
				log.Debug("superframe", logging.Int("frame", int(res.FrameIndex)),
					logging.Int("recovered", res.Recovered), logging.Any("dbfs", p))
			}
			if writeErr != nil {
				return
			}
			if writeErr = out.Write(samples); writeErr != nil {
				cancelServe()
			}
		})
		if err != nil {
			return err
		}
		if writeErr != nil {
			return fmt.Errorf("write samples: %w", writeErr)
		}
		// Serving ended on cancellation; take the other goroutines down too.
		return context.Canceled
	})
	err = g.Wait()
	if cerr := out.Close(); err == nil || errors.Is(err, context.Canceled) {
		err = cerr
	}
	log.Info("stopped", logging.Any("stats", rx.Stats()))
	return err
}

func metricsServer(addr string, rx *sdrfec.Receiver) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		metrics.NewCollector("sdrfec", rx),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/status", metrics.StatusHandler(rx))
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func logStats(ctx context.Context, log logging.Logger, rx *sdrfec.Receiver, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	var prev sdrfec.Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		st := rx.Stats()
		log.Info("stats",
			logging.Uint64("frames", st.Frames-prev.Frames),
			logging.Uint64("decoded", st.Decodes-prev.Decodes),
			logging.Uint64("recovered", st.Recovered-prev.Recovered),
			logging.Uint64("unsolvable", st.Unsolvable-prev.Unsolvable),
			logging.Uint64("abandoned", st.Abandoned-prev.Abandoned),
			logging.Uint64("ingress_drops", st.IngressDrops-prev.IngressDrops))
		prev = st
	}
}
