// ABOUTME: Entry point for the VulnHunt contract-scanning service.
// ABOUTME: Handles configuration parsing, resource initialization, and starts the HTTP server.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/config"
	"github.com/vulnhunt/vulnhunt/internal/kb"
	"github.com/vulnhunt/vulnhunt/internal/metrics"
	"github.com/vulnhunt/vulnhunt/internal/pipeline"
	"github.com/vulnhunt/vulnhunt/internal/providers"
	"github.com/vulnhunt/vulnhunt/internal/registry"
	"github.com/vulnhunt/vulnhunt/internal/server"
)

func main() {
	cfg, mockMode := parseConfig()

	// Set up structured logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		cancel()
	}()

	service, err := NewService(cfg, mockMode, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create service")
	}

	if err := service.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start service")
	}
}

func parseConfig() (*config.Config, bool) {
	var (
		configPath string
		mockMode   bool
	)

	flag.StringVar(&configPath, "config", "config.yaml", "Path to YAML config file")
	flag.BoolVar(&mockMode, "mock", false, "Enable mock pipeline stages for local testing (no external calls)")
	port := flag.Int("port", 0, "Port to serve the scan API on (overrides config file)")
	inferenceEndpoint := flag.String("inference-endpoint", "", "Inference sidecar base URL (overrides config file)")
	kbPath := flag.String("kb-path", "", "Path to the knowledge-base JSON file (overrides config file)")
	labelsPath := flag.String("labels-path", "", "Path to the label-encoder JSON file (overrides config file)")
	topK := flag.Int("top-k", 0, "Number of similar examples to retrieve (overrides config file)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *inferenceEndpoint != "" {
		cfg.Inference.Endpoint = *inferenceEndpoint
	}
	if *kbPath != "" {
		cfg.Retrieval.KBPath = *kbPath
	}
	if *labelsPath != "" {
		cfg.Inference.LabelsPath = *labelsPath
	}
	if *topK > 0 {
		cfg.Retrieval.TopK = *topK
	}

	// Override with environment variables if set
	if envPort := os.Getenv("PORT"); envPort != "" {
		if parsed, err := strconv.Atoi(envPort); err == nil && parsed > 0 {
			cfg.Server.Port = parsed
		} else {
			logrus.WithField("value", envPort).Warn("Invalid PORT environment variable")
		}
	}
	if envEndpoint := os.Getenv("INFERENCE_ENDPOINT"); envEndpoint != "" {
		cfg.Inference.Endpoint = envEndpoint
	}
	if envKB := os.Getenv("KB_PATH"); envKB != "" {
		cfg.Retrieval.KBPath = envKB
	}
	if envLabels := os.Getenv("LABELS_PATH"); envLabels != "" {
		cfg.Inference.LabelsPath = envLabels
	}
	if envModel := os.Getenv("OPENAI_MODEL"); envModel != "" {
		cfg.Reasoner.Model = envModel
	}
	if envMock := os.Getenv("MOCK_MODE"); envMock == "true" || envMock == "1" {
		mockMode = true
	}

	return cfg, mockMode
}

// Service wires the pipeline behind the HTTP surface.
type Service struct {
	config   *config.Config
	logger   *logrus.Logger
	pipeline *pipeline.Pipeline
	metrics  *metrics.Metrics
	watcher  *kb.Watcher
}

// NewService initializes resources and assembles the scan pipeline.
func NewService(cfg *config.Config, mockMode bool, logger *logrus.Logger) (*Service, error) {
	logger.WithFields(logrus.Fields{
		"port":               cfg.Server.Port,
		"inference_endpoint": cfg.Inference.Endpoint,
		"kb_path":            cfg.Retrieval.KBPath,
		"top_k":              cfg.Retrieval.TopK,
		"mock":               mockMode,
	}).Info("Initializing VulnHunt")

	m := metrics.New(logger)

	var (
		det pipeline.DetectorStage
		ret pipeline.RetrieverStage
		rsn pipeline.ReasonerStage
		w   *kb.Watcher
	)

	if mockMode {
		det, ret, rsn = providers.CreateMockStages(logger)
		m.SetStageAvailable("detector", true)
		m.SetStageAvailable("retriever", true)
	} else {
		reg := registry.New(cfg, logger)
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		reg.Initialize(initCtx)
		cancel()

		m.SetStageAvailable("detector", reg.DetectorReady())
		m.SetStageAvailable("retriever", reg.RetrieverReady())

		det, ret, rsn = providers.CreateStages(cfg, reg, logger)

		if reg.RetrieverReady() {
			watcher, err := kb.NewWatcher(reg.KBStore(), kb.DefaultWatcherConfig(), logger)
			if err != nil {
				logger.WithError(err).Warn("Knowledge-base watcher unavailable; hot reload disabled")
			} else {
				w = watcher
			}
		}
	}

	return &Service{
		config:   cfg,
		logger:   logger,
		pipeline: pipeline.New(det, ret, rsn, cfg.Retrieval.TopK, logger),
		metrics:  m,
		watcher:  w,
	}, nil
}

// Start serves the scan API until the context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			s.logger.WithError(err).Warn("Knowledge-base watcher failed to start")
		} else {
			defer s.watcher.Close()
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/scan", s.corsMiddleware(server.CreateScanHandler(s.pipeline, s.metrics, s.logger)))
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           mux,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.WithField("port", s.config.Server.Port).Info("Starting HTTP server")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}

// corsMiddleware adds CORS and security headers, answers preflight
// requests, and logs each request.
func (s *Service) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"remote_ip":  r.RemoteAddr,
			"user_agent": r.UserAgent(),
		}).Debug("HTTP request received")

		next(w, r)
	}
}

func (s *Service) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok"}`)
}
