package router

import (
	"context"
	"fmt"

	"github.com/anonto42/campus-p2p/backend/internal/blob"
	"github.com/anonto42/campus-p2p/backend/internal/cache"
	"github.com/anonto42/campus-p2p/backend/internal/export"
	"github.com/anonto42/campus-p2p/backend/internal/handlers"
	"github.com/anonto42/campus-p2p/backend/internal/live"
	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/repositories"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/anonto42/campus-p2p/backend/pkg/config"
	"github.com/anonto42/campus-p2p/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

var log = observability.GlobalLogger

// Stores are the repositories behind the services.
type Stores struct {
	Docs     repositories.DocumentStore
	Settings repositories.SettingsRepository
	Users    repositories.UserRepository
	Blobs    blob.Store
}

// NewStores migrates Postgres and selects the document and blob backends from cfg.
func NewStores(ctx context.Context, cfg *config.Config, db *config.DB, fb *firebase.App) (*Stores, error) {
	if err := db.Postgres.AutoMigrate(&models.User{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("PostgreSQL auto-migrations completed.")

	var docs repositories.DocumentStore
	switch cfg.DocumentStore {
	case config.DocumentStoreMongo:
		store := repositories.NewMongoStore(db.Mongo.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		docs = store
	default:
		if fb == nil || fb.Firestore == nil {
			return nil, fmt.Errorf("firestore client not initialized")
		}
		docs = repositories.NewFirestoreStore(fb.Firestore)
	}
	log.Info("Document store configured.", "backend", cfg.DocumentStore)

	c := cache.New(db.Redis)
	stores := &Stores{
		Docs:     docs,
		Settings: repositories.NewCachedSettingsRepository(docs, c),
		Users:    repositories.NewCachedUserRepository(repositories.NewPostgresUserRepository(db.Postgres), c),
	}

	switch cfg.BlobStore {
	case config.BlobStoreMinio:
		store, err := blob.NewMinioStore(ctx, blob.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return nil, err
		}
		stores.Blobs = store
	default:
		if fb == nil || fb.Bucket == nil {
			return nil, fmt.Errorf("firebase storage bucket not initialized")
		}
		stores.Blobs = blob.NewFirebaseStore(fb.Bucket, fb.BucketName)
	}
	log.Info("Blob store configured.", "backend", cfg.BlobStore)
	return stores, nil
}

// Services are the application operations the handlers call.
type Services struct {
	Posts      *service.PostService
	Moderation *service.ModerationService
	Chat       *service.ChatService
	Profiles   *service.ProfileService
	Reconciler *service.Reconciler
	Live       live.Deps
}

// NewServices wires the services over stores.
func NewServices(cfg *config.Config, s *Stores, exporter export.Exporter) *Services {
	reconciler := service.NewReconciler(s.Docs, cfg.ReportGracePeriod)
	return &Services{
		Posts: service.NewPostService(s.Docs, s.Docs, s.Settings, s.Users, s.Blobs, service.PostServiceConfig{
			MaxImageSize: cfg.MaxImageSize,
			FeedWindow:   cfg.FeedWindow(),
		}),
		Moderation: service.NewModerationService(s.Docs, s.Settings, s.Users, exporter, reconciler),
		Chat:       service.NewChatService(s.Docs, s.Users),
		Profiles:   service.NewProfileService(s.Users, cfg.Batches),
		Reconciler: reconciler,
		Live:       live.Deps{Store: s.Docs, Users: s.Users, FeedWindow: cfg.FeedWindow()},
	}
}

// SetupRoutes configures all application routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, svc *Services, fbAuth middleware.FirebaseAuth) {
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	e.GET("/health", handlers.HealthCheck)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(fbAuth, svc.Profiles, handlers.AuthConfig{
		JWTSecret:         cfg.JWTSecret,
		SessionTTL:        cfg.SessionTTL,
		InstitutionDomain: cfg.InstitutionDomain,
	})
	authHandler.RegisterAuthRoutes(authGroup)
	log.Info("Auth routes configured.")

	// --- Protected routes (require a session JWT) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.RecheckAdmin(fbAuth))

	handlers.NewUserHandler(svc.Profiles).RegisterProfileRoutes(api)
	log.Info("User profile routes configured.")

	handlers.NewFeedHandler(svc.Posts).RegisterFeedRoutes(api)
	handlers.NewPostHandler(svc.Posts).RegisterPostRoutes(api)
	handlers.NewAnswerHandler(svc.Posts).RegisterAnswerRoutes(api)
	log.Info("Post routes configured.")

	handlers.NewConversationHandler(svc.Chat).RegisterConversationRoutes(api)
	log.Info("Conversation routes configured.")

	handlers.NewLiveHandler(svc.Live, allowedOrigins(cfg.AllowedOrigins)).RegisterLiveRoutes(api)
	log.Info("Live routes configured.")

	admin := api.Group("/admin", middleware.RequireAdmin())
	handlers.NewAdminHandler(svc.Moderation).RegisterAdminRoutes(admin)
	log.Info("Admin routes configured.")

	log.Info("All routes configured.")
}

// allowedOrigins drops the wildcard, which the websocket upgrader treats as "any".
func allowedOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o != "*" {
			out = append(out, o)
		}
	}
	return out
}
