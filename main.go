package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/ft8skimmer/ft8"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	decodeFile := flag.String("decode", "", "Decode a single WAV file and exit")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}

	if *decodeFile != "" {
		if err := decodeWAVFiles(cfg, append([]string{*decodeFile}, flag.Args()...)); err != nil {
			log.Fatalf("[Main] %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("[Main] %v", err)
	}
}

// decodeWAVFiles runs the decode chain over recorded files, printing spots
// to stdout.
func decodeWAVFiles(cfg *Config, paths []string) error {
	pipeline, err := ft8.NewPipeline(cfg.CoreConfig())
	if err != nil {
		return err
	}

	for _, path := range paths {
		pcm, rate, channels, err := ReadWAV(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		frame, err := ft8.BuildFrame(pcm, rate, channels, cfg.Source.Channel, time.Time{}, pipeline.Config())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		report, err := pipeline.DecodeFrame(context.Background(), frame)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		fmt.Printf("%s: %d candidates, %d decodes\n", filepath.Base(path), report.Candidates, len(report.Results))
		printReport(report)
	}
	return nil
}

// printReport writes one cycle's decodes in the conventional column format.
func printReport(report *ft8.CycleReport) {
	for _, r := range report.Results {
		fmt.Printf("%s %3.0f %4.1f %4.0f ~ %s\n",
			report.CycleStart.Format("150405"), r.SNR, r.TimeOffset, r.Frequency, r.Message.String())
	}
}

func run(cfg *Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := ft8.NewPipeline(cfg.CoreConfig())
	if err != nil {
		return err
	}

	var source ft8.SampleSource
	rtpSource, err := NewRTPSource(cfg.Source, pipeline.Config())
	if err != nil {
		return err
	}
	defer rtpSource.Close()
	source = rtpSource

	if cfg.Recording.Enabled {
		if err := os.MkdirAll(cfg.Recording.Directory, 0o755); err != nil {
			return fmt.Errorf("recording directory: %w", err)
		}
		source = &recordingSource{inner: source, dir: cfg.Recording.Directory}
	}

	metrics := NewMetrics(cfg.Source.Band)
	broadcaster := NewSpotBroadcaster()

	var publisher *MQTTPublisher
	if cfg.MQTT.Enabled {
		publisher, err = NewMQTTPublisher(&cfg.MQTT)
		if err != nil {
			return err
		}
		go publisher.StartMetricsPublisher(ctx)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", broadcaster.HandleWS)
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.Server.Listen, Handler: mux}
	go func() {
		log.Printf("[Main] HTTP server listening on %s", cfg.Server.Listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Main] HTTP server: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("[Main] FT8 skimmer starting on %s (dial %d Hz)", cfg.Source.Band, cfg.Source.DialFrequency)

	return pipeline.Run(ctx, source, func(report *ft8.CycleReport) {
		metrics.ObserveCycle(report)
		metrics.wsClients.Set(float64(broadcaster.ClientCount()))
		metrics.hashTableEntries.Set(float64(pipeline.HashTableSize()))

		printReport(report)
		log.Printf("[Main] Cycle %s: %d decodes from %d candidates in %v",
			report.CycleStart.Format("15:04:05"), len(report.Results), report.Candidates, report.Elapsed)

		batch := BuildBatch(report, cfg)
		broadcaster.Broadcast(batch)
		if publisher != nil {
			publisher.PublishBatch(batch)
		}
	})
}

// recordingSource saves each captured frame as a WAV file before handing it
// to the decoder.
type recordingSource struct {
	inner ft8.SampleSource
	dir   string
}

func (r *recordingSource) Capture(ctx context.Context, window ft8.CaptureWindow) (*ft8.AudioFrame, error) {
	frame, err := r.inner.Capture(ctx, window)
	if err != nil {
		return nil, err
	}

	name := filepath.Join(r.dir, window.Boundary.Format("20060102_150405")+".wav")
	if err := saveFrame(name, frame); err != nil {
		log.Printf("[Main] Failed to save recording %s: %v", name, err)
	}
	return frame, nil
}

func saveFrame(name string, frame *ft8.AudioFrame) error {
	w, err := NewWAVWriter(name, frame.Rate, 1)
	if err != nil {
		return err
	}

	pcm := make([]int16, len(frame.Samples))
	for i, s := range frame.Samples {
		v := s * 32767.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		pcm[i] = int16(v)
	}
	if err := w.WriteSamples(pcm); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
