package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-pos/meridian/internal/app"
	"github.com/meridian-pos/meridian/internal/documents"
	"github.com/meridian-pos/meridian/internal/employees"
	"github.com/meridian-pos/meridian/internal/masterdata/categories"
	"github.com/meridian-pos/meridian/internal/masterdata/products"
	"github.com/meridian-pos/meridian/internal/masterdata/stores"
	"github.com/meridian-pos/meridian/internal/masterdata/units"
	"github.com/meridian-pos/meridian/internal/observability"
	"github.com/meridian-pos/meridian/internal/parties"
	"github.com/meridian-pos/meridian/internal/parties/clients"
	"github.com/meridian-pos/meridian/internal/parties/suppliers"
	"github.com/meridian-pos/meridian/internal/shared"
	"github.com/meridian-pos/meridian/internal/stock"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	unitRepo := units.NewRepository(pool)
	unitService := units.NewService(unitRepo)
	unitsHandler := units.NewHandler(logger, unitService)

	categoryRepo := categories.NewRepository(pool)
	categoryService := categories.NewService(categoryRepo)
	categoriesHandler := categories.NewHandler(logger, categoryService)

	storeRepo := stores.NewRepository(pool)
	storeService := stores.NewService(storeRepo)
	storesHandler := stores.NewHandler(logger, storeService)

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo, unitRepo)
	productsHandler := products.NewHandler(logger, productService)

	clientRepo := clients.NewRepository(pool)
	clientService := clients.NewService(clientRepo)
	clientsHandler := clients.NewHandler(logger, clientService)

	supplierRepo := suppliers.NewRepository(pool)
	supplierService := suppliers.NewService(supplierRepo)
	suppliersHandler := suppliers.NewHandler(logger, supplierService)

	employeeRepo := employees.NewRepository(pool)
	employeeService := employees.NewService(employeeRepo)
	employeesHandler := employees.NewHandler(logger, employeeService)

	stockLedger := stock.NewLedger(pool)
	partyLedger := parties.NewLedger()
	stockCache := stock.NewQuantityCache(redisClient, cfg.StockCacheTTL)
	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, stockLedger, auditLogger, stockCache)
	stockHandler := stock.NewHandler(logger, stockService)

	documentRepo := documents.NewRepository(pool, stockLedger, partyLedger)
	processor := documents.NewProcessor(documentRepo, auditLogger, metrics, stockCache)
	documentsHandler := documents.NewHandler(logger, processor)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		UnitsHandler:      unitsHandler,
		CategoriesHandler: categoriesHandler,
		StoresHandler:     storesHandler,
		ProductsHandler:   productsHandler,
		ClientsHandler:    clientsHandler,
		SuppliersHandler:  suppliersHandler,
		EmployeesHandler:  employeesHandler,
		StockHandler:      stockHandler,
		DocumentsHandler:  documentsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
