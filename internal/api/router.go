package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/middleware"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/config"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/service"
)

// Services are the dependencies of the HTTP layer.
type Services struct {
	System      *service.SystemService
	Valuation   *service.ValuationService
	Benchmark   *service.BenchmarkService
	Snapshot    *service.SnapshotService
	Transaction *service.TransactionService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Valuation, svc.Snapshot, svc.Benchmark)
			r.Get("/", portfolioHandler.Portfolio)
			r.Get("/history", portfolioHandler.History)
			r.Get("/benchmarks", portfolioHandler.Benchmarks)
		})

		r.Route("/snapshot", func(r chi.Router) {
			snapshotHandler := handlers.NewSnapshotHandler(svc.Snapshot)
			r.With(custommiddleware.APIKeyMiddleware).Post("/", snapshotHandler.CreateSnapshot)
		})

		transactionHandler := handlers.NewTransactionHandler(svc.Transaction)
		r.Route("/transaction", func(r chi.Router) {
			r.Get("/", transactionHandler.AllTransactions)
			r.Post("/", transactionHandler.CreateTransaction)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.GetTransaction)
				r.Put("/", transactionHandler.UpdateTransaction)
				r.Delete("/", transactionHandler.DeleteTransaction)
			})
		})

		r.Get("/asset", transactionHandler.AllAssets)

		r.Route("/benchmark", func(r chi.Router) {
			benchmarkHandler := handlers.NewBenchmarkHandler(svc.Benchmark)
			r.Get("/{key}", benchmarkHandler.IndexHistory)
		})
	})

	return r
}
