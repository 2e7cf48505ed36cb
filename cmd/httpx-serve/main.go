package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/PeggyMercyPrescott/KestrelHttpServer/httpx"
	"github.com/PeggyMercyPrescott/KestrelHttpServer/internal/obs"
)

type config struct {
	Addr              string        `yaml:"addr"`
	MetricsAddr       string        `yaml:"metrics_addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes    int           `yaml:"max_header_bytes"`
	AcceptsPerSecond  float64       `yaml:"accepts_per_second"`
}

func loadConfig(path string) (config, error) {
	cfg := config{
		Addr:              ":8080",
		MetricsAddr:       ":9090",
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}
	if v := os.Getenv("HTTPX_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("HTTPX_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	return cfg, nil
}

func main() {
	_ = godotenv.Load(".env")

	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := obs.ZapLogger{S: zl.Sugar()}
	meter := obs.NewPromMeter(prometheus.DefaultRegisterer)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				zl.Warn("metrics listener failed", zap.Error(err))
			}
		}()
	}

	s := &httpx.Server{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		Logger:            logger,
		Meter:             meter,
	}
	if cfg.AcceptsPerSecond > 0 {
		s.AcceptLimit = rate.NewLimiter(rate.Limit(cfg.AcceptsPerSecond), int(cfg.AcceptsPerSecond)+1)
	}

	s.Handler = httpx.HandlerFunc(func(w httpx.ResponseWriter, r *httpx.Request) {
		start := time.Now()
		_ = w.OnCompleted(func() error {
			meter.Histogram("httpx_demo_request_seconds", time.Since(start).Seconds(),
				obs.Label{Key: "path", Value: r.RequestURI})
			return nil
		})

		switch r.RequestURI {
		case "/stream":
			// No declared length: the engine injects chunked framing.
			_ = w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			for i := 0; i < 3; i++ {
				_, _ = w.Write([]byte(fmt.Sprintf("tick %d\n", i)))
				if f, ok := w.(httpx.Flusher); ok {
					_ = f.Flush()
				}
				time.Sleep(100 * time.Millisecond)
			}
		default:
			id, _ := httpx.RequestIDFrom(r.Context())
			body := []byte("hello from " + id + "\n")
			_ = w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_ = w.SetContentLength(int64(len(body)))
			_, _ = w.Write(body)
		}
	})

	zl.Info("listening", zap.String("addr", cfg.Addr))
	if err := s.ListenAndServe(); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}
