package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/tradeweave/tradeweave-backend/db/migrations"
	"github.com/tradeweave/tradeweave-backend/internal/config"
	"github.com/tradeweave/tradeweave-backend/internal/modules/access"
	"github.com/tradeweave/tradeweave-backend/internal/modules/auth"
	"github.com/tradeweave/tradeweave-backend/internal/modules/invitation"
	"github.com/tradeweave/tradeweave-backend/internal/modules/organization"
	"github.com/tradeweave/tradeweave-backend/internal/modules/relationship"
	"github.com/tradeweave/tradeweave-backend/internal/modules/visibility"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	if err := migrations.Run(db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(auth.Middleware([]byte(jwtSecret)))

	// ── Shared infrastructure ───────────────────────────────
	cache := access.NewCache(config.NewRedisClient())
	interactionWriter := config.NewKafkaWriter("relationship-interactions")

	// ── Organizations & settings ────────────────────────────
	orgRepo := organization.NewPostgresRepository(db)
	orgService := organization.NewService(orgRepo, cache)
	organization.NewHandler(orgService).RegisterRoutes(router)

	// ── Relationships & permissions ─────────────────────────
	relRepo := relationship.NewPostgresRepository(db)
	relService := relationship.NewService(relRepo, interactionWriter, cache)
	relationship.NewHandler(relService).RegisterRoutes(router)

	// ── Invitations ─────────────────────────────────────────
	invRepo := invitation.NewPostgresRepository(db)
	invService := invitation.NewService(invRepo, relService)
	invitation.NewHandler(invService).RegisterRoutes(router)

	// ── Visibility records ──────────────────────────────────
	visRepo := visibility.NewPostgresRepository(db)
	visService := visibility.NewService(visRepo)
	visibility.NewHandler(visService).RegisterRoutes(router)

	// ── Access resolution engine ────────────────────────────
	accessService := access.NewService(relRepo, orgRepo, visRepo, cache)
	access.NewHandler(accessService).RegisterRoutes(router)

	// ── Start server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Tradeweave API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
