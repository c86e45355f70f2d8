package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shelfscape/backend/internal/api"
	"github.com/shelfscape/backend/internal/auth"
	"github.com/shelfscape/backend/internal/community"
	"github.com/shelfscape/backend/internal/config"
	"github.com/shelfscape/backend/internal/detect"
	"github.com/shelfscape/backend/internal/middleware"
	"github.com/shelfscape/backend/internal/recommend"
	"github.com/shelfscape/backend/internal/shelves"
	"github.com/shelfscape/backend/internal/social"
	"github.com/shelfscape/backend/internal/store"
	"github.com/shelfscape/backend/internal/token"
	"github.com/shelfscape/backend/internal/upload"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	history := store.NewHistoryStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewSessionCache(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	tokens := token.NewService(cfg.JWTSecret, cfg.TokenExpiry, token.NewRedisRevoker(rdb))
	loginLimiter := middleware.RateLimit(middleware.NewRedisCounter(rdb),
		cfg.LoginRateLimit, cfg.LoginRateWindow)

	// ── MinIO ────────────────────────────────────────────────
	blobs, err := store.NewBlobStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Vision detector ──────────────────────────────────────
	var detector upload.Detector
	if cfg.OpenAIAPIKey != "" {
		detector = detect.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Println("OPENAI_API_KEY not set; image analysis disabled")
	}

	// ── Recommendation catalogs ──────────────────────────────
	aggregator := recommend.NewAggregator(
		recommend.NewGoogleBooksClient(cfg.GoogleBooksURL),
		recommend.NewOpenLibraryClient(cfg.OpenLibraryURL),
	)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(pgStore, tokens)
	shelfHandler := shelves.NewHandler(pgStore, pgStore)
	socialHandler := social.NewHandler(pgStore, pgStore)
	communityHandler := community.NewHandler(pgStore)
	uploadHandler := upload.NewHandler(detector, aggregator, blobs, pgStore, history)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(api.NotFound)
	r.MethodNotAllowed(api.MethodNotAllowed)

	requireAuth := middleware.RequireAuth(tokens)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", api.Health)
		r.Get("/spec", api.Spec)

		// Auth (public, login rate limited)
		r.Post("/register", authHandler.Register)
		r.With(loginLimiter).Post("/login", authHandler.Login)
		r.With(requireAuth).Post("/logout", authHandler.Logout)
		r.With(requireAuth).Post("/token/refresh", authHandler.Refresh)
		r.With(requireAuth).Get("/verify_token", authHandler.Verify)

		// Public shelf browsing
		r.Get("/public/bookshelves", shelfHandler.PublicList)
		r.Get("/public/bookshelves/{id}", shelfHandler.PublicGet)

		// Shelves and books
		r.Route("/bookshelves", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", shelfHandler.List)
			r.Post("/", shelfHandler.Create)
			r.Get("/{id}", shelfHandler.Get)
			r.Put("/{id}", shelfHandler.Update)
			r.Delete("/{id}", shelfHandler.Delete)
			r.Post("/{id}/books", shelfHandler.AddBook)
		})
		r.With(requireAuth).Delete("/books/{id}", shelfHandler.RemoveBook)
		r.With(requireAuth).Get("/users/{id}/bookshelves", shelfHandler.UserShelves)

		// Friends
		r.Route("/friends", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", socialHandler.List)
			r.Get("/requests", socialHandler.Incoming)
			r.Get("/outgoing", socialHandler.Outgoing)
			r.Post("/{id}", socialHandler.Request)
			r.Delete("/{id}", socialHandler.Remove)
		})

		// Communities; browsing is public, everything else needs a token
		r.Route("/communities", func(r chi.Router) {
			r.Get("/", communityHandler.List)
			r.Get("/search", communityHandler.Search)
			r.Get("/{id}", communityHandler.Get)
			r.Get("/{id}/members", communityHandler.Members)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", communityHandler.Create)
				r.Get("/mine", communityHandler.Mine)
				r.Put("/{id}", communityHandler.Update)
				r.Delete("/{id}", communityHandler.Delete)
				r.Post("/{id}/join", communityHandler.Join)
				r.Delete("/{id}/leave", communityHandler.Leave)
			})
		})

		// Upload pipeline
		r.With(requireAuth).Post("/upload", uploadHandler.Upload)
		r.With(requireAuth).Get("/uploads", uploadHandler.History)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
