package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/storefront/internal/adapter/catalog"
	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/messaging"
	"github.com/rl1809/storefront/internal/adapter/payment"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/config"
	"github.com/rl1809/storefront/pkg/kafka"
	"github.com/rl1809/storefront/pkg/logger"
	"github.com/rl1809/storefront/pkg/metrics"
	"github.com/rl1809/storefront/pkg/shutdown"
)

const (
	serviceName     = "storefront"
	archiveWorkers  = 4
	archiveQueue    = 1000
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Service: serviceName, Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	tp, err := newTracerProvider(cfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	otel.SetTracerProvider(tp)
	defer tp.Shutdown(context.Background())

	memory := storage.NewMemoryStore()
	var (
		catalogSource port.CatalogSource    = catalog.NewStatic()
		kv            port.KeyValueStore    = memory
		idem          port.IdempotencyStore = memory
		orders        port.OrderRepository  = memory
	)

	if cfg.MySQLDSN != "" {
		db, err := openMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		mysqlAdapter := storage.NewMySQLAdapter(db)
		if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		static := catalog.NewStatic()
		products, _ := static.ListProducts(ctx)
		categories, _ := static.ListCategories(ctx)
		if err := mysqlAdapter.SeedCatalog(ctx, products, categories); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}

		catalogSource = mysqlAdapter
		orders = mysqlAdapter
		log.Info("connected to mysql")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()

		redisAdapter := storage.NewRedisAdapter(rdb, serviceName)
		kv, idem = redisAdapter, redisAdapter
		log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	}

	archiver := service.NewOrderArchiver(orders, archiveQueue, log.Named("archiver"))
	archiver.Start(archiveWorkers)
	defer archiver.Close()

	checkoutOpts := []service.CheckoutOption{
		service.WithOrderRepository(archiver),
		service.WithCheckoutLogger(log.Named("checkout")),
	}

	producer := kafka.Producer{Brokers: kafka.ParseBrokers(cfg.KafkaBrokers), Topic: cfg.KafkaTopic}
	if producer.Enabled() {
		writer := producer.Writer()
		defer writer.Close()
		checkoutOpts = append(checkoutOpts, service.WithEventPublisher(messaging.NewKafkaPublisher(writer)))
		log.Info("publishing order events", zap.Strings("brokers", producer.Brokers), zap.String("topic", producer.Topic))
	}

	notifications := service.NewNotificationCenter(log.Named("notifications"))
	defer notifications.ClearAll()

	cart := service.NewCartService(kv, notifications, log.Named("cart"))
	cart.LoadFromStorage(ctx)

	payments := payment.NewInstrumented(
		service.NewPaymentService(service.DefaultPaymentConfig().Scaled(cfg.PaymentLatencyScale),
			service.WithPaymentLogger(log.Named("payment")),
		),
		metrics.NewPaymentMetrics(prometheus.DefaultRegisterer),
	)
	checkout := service.NewCheckoutService(cart, payments, notifications, checkoutOpts...)
	catalogService := service.NewCatalogService(catalogSource)

	httpHandler := handler.NewHTTPHandler(catalogService, cart, checkout, notifications,
		handler.WithIdempotency(idem),
		handler.WithMetrics(metrics.NewServerMetrics(prometheus.DefaultRegisterer, "http"), metrics.Handler()),
		handler.WithHTTPLogger(log.Named("http")),
	)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpHandler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer, healthServer := handler.NewGRPCServer(
		handler.NewGRPCHandler(catalogService, cart, checkout, idem, log.Named("grpc")),
		log.Named("grpc"),
	)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// newTracerProvider prints spans to stdout in dev and discards them elsewhere.
func newTracerProvider(cfg config.Config) (*sdktrace.TracerProvider, error) {
	var out io.Writer = io.Discard
	if cfg.AppEnv == "dev" {
		out = os.Stdout
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)), nil
}
