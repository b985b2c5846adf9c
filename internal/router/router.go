package router

import (
	"database/sql"
	"net/http"

	"cloud.google.com/go/firestore"

	_ "medilocator/docs"
	fsstore "medilocator/internal/adapters/storage/firestore"
	mem "medilocator/internal/adapters/storage/memory"
	pg "medilocator/internal/adapters/storage/postgres"
	"medilocator/internal/domain/medicines"
	"medilocator/internal/domain/plans"
	"medilocator/internal/middleware"
	"medilocator/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options: el store se inyecta explícito. Firestore tiene prioridad sobre
// DB; sin ninguno se usa in-memory.
type Options struct {
	DB        *sql.DB
	Firestore *firestore.Client

	Logger logger.Logger // nil => Nop
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		medicineRepo medicines.Repository
		planRepo     plans.Repository
		backend      string
	)

	switch {
	case opts.Firestore != nil:
		medicineRepo = fsstore.NewMedicinesRepo(opts.Firestore)
		planRepo = fsstore.NewPlansRepo(opts.Firestore)
		backend = "firestore"
	case opts.DB != nil:
		medicineRepo = pg.NewMedicinesRepo(opts.DB)
		planRepo = pg.NewPlansRepo(opts.DB)
		backend = "postgres"
	default:
		medicineRepo = mem.NewMedicinesRepo()
		planRepo = mem.NewPlansRepo()
		backend = "memory"
	}
	log.Info("store selected", map[string]any{"backend": backend})

	// Services por módulo
	medicinesSvc := medicines.NewService(medicineRepo)
	plansSvc := plans.NewService(planRepo, medicinesSvc)

	// Rutas por módulo
	medicines.RegisterRoutes(r, medicinesSvc, log)
	plans.RegisterRoutes(r, plansSvc, log)

	return r
}
