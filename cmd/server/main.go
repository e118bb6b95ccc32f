package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/audit"
	"estoque-backend/internal/auth"
	"estoque-backend/internal/catalog"
	"estoque-backend/internal/config"
	"estoque-backend/internal/database"
	"estoque-backend/internal/inventory"
	"estoque-backend/internal/logger"
	"estoque-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("store unavailable", zap.Error(err))
	}
	defer closeStore()

	app := newApp(cfg, log, store)

	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreDriver))
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(cfg *config.Config, log *zap.Logger) (database.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("STORE_DRIVER=memory: data is lost on restart")
		return database.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return database.NewGormStore(db), closeFn, nil
}

func newApp(cfg *config.Config, log *zap.Logger, store database.Store) *fiber.App {
	catalogSvc := catalog.NewService(store, log)
	stockSvc := stock.NewService(store, log)
	auditSvc := audit.NewService(store, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.Handler(log),
		// room for the image plus the other form fields
		BodyLimit: cfg.MaxImageBytes + 1<<20,
	})

	app.Use(recover.New())
	app.Use(logger.RequestLogger(log))

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))
	app.Use(logger.Timeout(cfg.RequestTimeout))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public auth
	app.Post("/register", auth.RegisterHandler(store))
	app.Post("/login", auth.LoginHandler(cfg, store))

	// Protected
	protected := app.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/me", auth.MeHandler(store))

	// Produtos
	protected.Post("/produtos", inventory.CreateProductHandler(catalogSvc, auditSvc, cfg.MaxImageBytes))
	protected.Post("/produtos/importar", inventory.ImportProductsHandler(catalogSvc, auditSvc))
	protected.Get("/ver_produtos", inventory.ListProductsHandler(catalogSvc))
	protected.Get("/produtos/:codigo", inventory.GetProductHandler(catalogSvc))
	protected.Get("/produtos/:codigo/imagem", inventory.ProductImageHandler(catalogSvc))
	protected.Patch("/editar_produto/:codigo", inventory.UpdateProductHandler(catalogSvc, auditSvc))
	protected.Delete("/deletar_produto/:codigo", inventory.DeleteProductHandler(catalogSvc, auditSvc))

	// Recebimentos e saídas
	protected.Get("/recebimento/:codigo?", inventory.ListReceiptsHandler(stockSvc))
	protected.Post("/adicionar-recebimento", inventory.CreateReceiptHandler(stockSvc, auditSvc))
	protected.Get("/saidas/:codigo?", inventory.ListIssuesHandler(stockSvc))
	protected.Post("/adicionar-saida", inventory.CreateIssueHandler(stockSvc, auditSvc))

	// Saldos e consultas
	protected.Get("/saldos/exportar", inventory.ExportBalancesHandler(stockSvc))
	protected.Get("/saldos/:codigo?", inventory.BalancesHandler(stockSvc))
	protected.Get("/fornecedores/:codigo", inventory.SuppliersHandler(stockSvc))
	protected.Get("/lotes", inventory.LotsHandler(stockSvc))
	protected.Get("/estoque", inventory.StockSummaryHandler(stockSvc))
	protected.Get("/estoqueseguranca", inventory.SafetyStockHandler(stockSvc))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(auditSvc))

	return app
}
