// Command server wires the verification and listing services behind the HTTP
// API. Business logic lives in internal packages; main only assembles
// dependencies and owns the process lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"veristay/internal/audit"
	listingservice "veristay/internal/listing/service"
	listingstore "veristay/internal/listing/store"
	"veristay/internal/platform/config"
	"veristay/internal/platform/httpserver"
	"veristay/internal/platform/logger"
	"veristay/internal/platform/metrics"
	redisplatform "veristay/internal/platform/redis"
	"veristay/internal/platform/token"
	httptransport "veristay/internal/transport/http"
	"veristay/internal/upload"
	"veristay/internal/verification/lockout"
	"veristay/internal/verification/ocr"
	"veristay/internal/verification/otp"
	verificationservice "veristay/internal/verification/service"
	sessionstore "veristay/internal/verification/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	rdb, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis connected")
	} else {
		log.Warn("redis not configured, using in-memory stores")
	}

	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("postgres open: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres ping: %w", err)
		}
		log.Info("postgres connected")
	} else {
		log.Warn("postgres not configured, using in-memory listing store")
	}

	// Stores follow the redis/postgres configuration; every backend has an
	// in-memory fallback so the service runs standalone in development.
	var (
		sessions    sessionstore.SessionStore
		otpStore    otp.Store
		lockoutData lockout.Store
	)
	if rdb != nil {
		sessions = sessionstore.NewRedisSessionStore(rdb.Client, cfg.Session.TTL)
		otpStore = otp.NewRedisStore(rdb.Client)
		lockoutData = lockout.NewRedisStore(rdb.Client)
	} else {
		sessions = sessionstore.NewInMemorySessionStore()
		otpStore = otp.NewInMemoryStore()
		lockoutData = lockout.NewInMemoryStore()
	}

	var listings listingstore.Store
	if db != nil {
		listings = listingstore.NewPostgres(db)
	} else {
		listings = listingstore.NewInMemoryStore()
	}

	// Demo mode swaps the external boundaries for local stand-ins: canned OCR,
	// a fixed OTP code, and local document references.
	var (
		extractor ocr.Extractor
		verifier  otp.Verifier
		uploads   httptransport.UploadStore
	)
	issuer := otp.NewIssuer(otpStore, otp.NewLogSender(log), cfg.OTP.CodeTTL, otp.WithLogger(log))
	if cfg.DemoMode || cfg.OCR.Mode == config.OCRModeStub {
		extractor = ocr.NewStub()
	} else {
		extractor = ocr.NewRemote(cfg.OCR.URL, cfg.OCR.Timeout, ocr.WithLogger(log))
	}
	if cfg.DemoMode {
		log.Warn("demo mode enabled: static OTP verifier and local uploads")
		verifier = otp.NewStatic(cfg.OTP.DemoCode)
		uploads = upload.NewLocalStore()
	} else {
		verifier = otp.NewStoreVerifier(otpStore)
		uploads = upload.NewHTTPStore(cfg.Upload.URL, cfg.Upload.Timeout, upload.WithLogger(log))
	}

	lockoutSvc := lockout.New(lockoutData,
		lockout.WithLogger(log),
		lockout.WithConfig(lockout.Config{
			AttemptsPerWindow: cfg.Lockout.AttemptsPerWindow,
			Window:            cfg.Lockout.Window,
			HardLockDuration:  cfg.Lockout.HardLockDuration,
			ResendsPerWindow:  cfg.Lockout.ResendsPerWindow,
			ResendWindow:      cfg.Lockout.ResendWindow,
		}),
	)

	signer, err := token.NewSigner([]byte(cfg.Token.SigningKey), cfg.Token.Issuer, cfg.Token.TTL)
	if err != nil {
		return fmt.Errorf("token signer: %w", err)
	}

	buffer := audit.NewRingBuffer(0)
	emitter := audit.NewEmitter(buffer, audit.WithLogger(log))
	var sinks []audit.Store
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaStore(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("kafka audit sink: %w", err)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
	} else {
		sinks = append(sinks, audit.NewInMemoryStore())
		log.Warn("kafka not configured, audit events stay in memory")
	}
	worker := audit.NewWorker(buffer, sinks, audit.WithWorkerLogger(log))

	verificationSvc := verificationservice.New(sessions, extractor, issuer, verifier, lockoutSvc, signer,
		verificationservice.WithLogger(log),
		verificationservice.WithMetrics(m),
		verificationservice.WithAuditEmitter(emitter),
	)
	listingSvc := listingservice.New(listings, verificationSvc,
		listingservice.WithLogger(log),
		listingservice.WithMetrics(m),
		listingservice.WithAuditEmitter(emitter),
	)

	router := httptransport.NewRouter(httptransport.Dependencies{
		Verification:   verificationSvc,
		Uploads:        uploads,
		Listings:       listingSvc,
		Logger:         log,
		Metrics:        m,
		RequestTimeout: cfg.RequestTimeout,
		Health: func() error {
			healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if rdb != nil {
				if err := rdb.Health(healthCtx); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			if db != nil {
				if err := db.PingContext(healthCtx); err != nil {
					return fmt.Errorf("postgres: %w", err)
				}
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "demo_mode", cfg.DemoMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
