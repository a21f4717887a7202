package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcart "github.com/crunchkart/storefront/internal/application/cart"
	appcatalog "github.com/crunchkart/storefront/internal/application/catalog"
	"github.com/crunchkart/storefront/internal/application/checkout"
	"github.com/crunchkart/storefront/internal/config"
	domcart "github.com/crunchkart/storefront/internal/domain/cart"
	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	domorder "github.com/crunchkart/storefront/internal/domain/order"
	dompayment "github.com/crunchkart/storefront/internal/domain/payment"
	"github.com/crunchkart/storefront/internal/infrastructure/id"
	"github.com/crunchkart/storefront/internal/infrastructure/memory"
	storemongo "github.com/crunchkart/storefront/internal/infrastructure/mongo"
	"github.com/crunchkart/storefront/internal/infrastructure/observability/oteltrace"
	"github.com/crunchkart/storefront/internal/infrastructure/observability/prometrics"
	"github.com/crunchkart/storefront/internal/infrastructure/observability/telemetry"
	"github.com/crunchkart/storefront/internal/infrastructure/observability/zaplogger"
	"github.com/crunchkart/storefront/internal/infrastructure/redispub"
	"github.com/crunchkart/storefront/internal/observability"
	"github.com/crunchkart/storefront/internal/pkg/logging"
	httppresentation "github.com/crunchkart/storefront/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	tel := buildTelemetry(cfg.ServiceName, zaplogger.Wrap(baseLogger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := buildStores(ctx, cfg, tel)
	if err != nil {
		systemLogger.Fatal("store_init_error", zap.Error(err))
	}
	defer stores.close()

	idGenerator := id.NewUUIDGenerator()

	cartService := appcart.NewService(stores.carts, stores.products, tel)
	cartSync := appcart.NewSync(stores.watcher, tel)
	defer cartSync.Close()

	checkoutService := checkout.NewService(cartService, stores.orders, idGenerator, tel)
	confirmPayment := checkout.NewConfirmPaymentUseCase(
		stores.orders, stores.payments, stores.products, cartService, idGenerator, tel,
	)
	catalogService := appcatalog.NewService(stores.products, stores.categories, tel)

	handler := httppresentation.NewHandler(
		cartService, cartSync, checkoutService, confirmPayment, catalogService,
		cfg.JWTSecret, zaplogger.Wrap(baseLogger), tel,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("store", string(cfg.Store)),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

func buildTelemetry(serviceName string, logger observability.Logger) observability.Observability {
	reg := prometrics.New(serviceName, "")

	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: reg.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: reg.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests served.",
			"method", "route", "status",
		),
		observability.MCartMutations: reg.Counter(
			string(observability.MCartMutations),
			"Total number of cart mutations by kind and outcome.",
			"mutation", "outcome",
		),
		observability.MCartSyncDeliveries: reg.Counter(
			string(observability.MCartSyncDeliveries),
			"Cart snapshot deliveries to realtime subscribers.",
			"outcome",
		),
		observability.MExternalRequests: reg.Counter(
			string(observability.MExternalRequests),
			"Requests issued to external systems.",
			"target", "operation",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: reg.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: reg.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			prometheus.DefBuckets,
			"method", "route",
		),
		observability.MExternalRequestDuration: reg.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of requests to external systems in seconds.",
			prometheus.DefBuckets,
			"target", "operation",
		),
	}

	return telemetry.New(oteltrace.New(serviceName), logger, counters, histograms)
}

// stores bundles the repository backends selected by configuration.
type stores struct {
	carts      domcart.Repository
	products   domcatalog.ProductRepository
	categories domcatalog.CategoryRepository
	orders     domorder.Repository
	payments   dompayment.Repository
	watcher    appcart.Watcher

	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildStores(ctx context.Context, cfg *config.Config, tel observability.Observability) (*stores, error) {
	switch cfg.Store {
	case config.StoreMemory:
		cartRepo := memory.NewCartRepository()
		return &stores{
			carts:      cartRepo,
			products:   memory.NewProductRepository(),
			categories: memory.NewCategoryRepository(),
			orders:     memory.NewOrderRepository(),
			payments:   memory.NewPaymentRepository(),
			watcher:    cartRepo,
		}, nil

	case config.StoreMongo:
		// The realtime feed crosses instances, so the mongo backend needs the
		// Redis fanout alongside it.
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("store %q requires STOREFRONT_REDIS_URL", cfg.Store)
		}

		db, err := storemongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}

		redisClient, err := redispub.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}

		// The hub reads current carts straight from the collection when
		// seeding a watch, so it gets a notifier-free repository.
		hub := redispub.NewHub(redisClient, storemongo.NewCartRepository(db, nil), tel)

		payments := storemongo.NewPaymentRepository(db)
		if err := payments.EnsureIndexes(ctx); err != nil {
			_ = redisClient.Close()
			_ = db.Client().Disconnect(context.Background())
			return nil, err
		}

		return &stores{
			carts:      storemongo.NewCartRepository(db, hub),
			products:   storemongo.NewProductRepository(db),
			categories: storemongo.NewCategoryRepository(db),
			orders:     storemongo.NewOrderRepository(db),
			payments:   payments,
			watcher:    hub,
			closers: []func(){
				func() { _ = redisClient.Close() },
				func() { _ = db.Client().Disconnect(context.Background()) },
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
