package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"neighborhub/internal/auth"
	"neighborhub/internal/config"
	"neighborhub/internal/db"
	grpcserver "neighborhub/internal/grpc"
	"neighborhub/internal/handlers"
	"neighborhub/internal/middleware"
	"neighborhub/internal/observability"
	"neighborhub/internal/rabbitmq"
	"neighborhub/internal/repositories"
	"neighborhub/internal/search"
	"neighborhub/internal/services"
	"neighborhub/internal/telemetry"
	"neighborhub/internal/ws"
)

const serviceName = "neighborhub"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher: mode=%s reason=%s", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	observability.SetPublisher(publisher)
	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit."+serviceName, serviceName, cfg.Env)

	userRepo := repositories.NewUserRepo(database)
	neighborhoodRepo := repositories.NewNeighborhoodRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	forumRepo := repositories.NewForumRepo(database)
	marketplaceRepo := repositories.NewMarketplaceRepo(database)
	safetyRepo := repositories.NewSafetyRepo(database)

	if n, err := services.PromoteAdmins(ctx, userRepo, cfg.AdminEmails); err != nil {
		log.Fatalf("failed to promote admins: %v", err)
	} else if n > 0 {
		log.Printf("admins promoted: count=%d", n)
	}

	forumIndex, err := search.NewForumIndex()
	if err != nil {
		log.Fatalf("failed to open forum index: %v", err)
	}
	defer forumIndex.Close()
	posts, err := forumRepo.ListAll(ctx)
	if err != nil {
		log.Fatalf("failed to load forum posts: %v", err)
	}
	if err := forumIndex.Rebuild(posts); err != nil {
		log.Fatalf("failed to index forum posts: %v", err)
	}
	log.Printf("forum index rebuilt: posts=%d", len(posts))

	hub := ws.NewHub(ws.NewMemoryPresence())
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	messageService := services.NewMessageService(messageRepo, userRepo, hub, cfg.MessageMaxLength, cfg.ConversationPageLimit)

	if err := handlers.RegisterValidators(); err != nil {
		log.Fatalf("failed to register validators: %v", err)
	}

	authHandler := handlers.NewAuthHandler(userRepo, neighborhoodRepo, tokens, hasher, auditEmitter)
	userHandler := handlers.NewUserHandler(userRepo, hub, auditEmitter)
	neighborhoodHandler := handlers.NewNeighborhoodHandler(neighborhoodRepo)
	forumHandler := handlers.NewForumHandler(forumRepo, userRepo, forumIndex, hub, auditEmitter)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceRepo, hub, auditEmitter)
	safetyHandler := handlers.NewSafetyHandler(safetyRepo, userRepo, hub, auditEmitter)
	messageHandler := handlers.NewMessageHandler(messageService, auditEmitter)
	wsHandler := ws.NewHandler(hub, tokens, userRepo, cfg.WSSendBuffer)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(middleware.ExposeErrors(cfg.IsDevelopment()))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", wsHandler.Handle)
	handlers.RegisterDebugRoutes(router, auditEmitter, hub, cfg.DebugRoutes)

	api := router.Group("/api")
	api.GET("/health", handlers.Health(database))
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.AuthMiddleware(tokens))
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.POST("/auth/verify-email", authHandler.VerifyEmail)

	authed.GET("/users/profile", userHandler.GetProfile)
	authed.PUT("/users/profile", userHandler.UpdateProfile)
	authed.GET("/users/neighbors", userHandler.ListNeighbors)
	authed.GET("/users/neighbors/:id", userHandler.GetNeighbor)
	authed.GET("/users/online", userHandler.ListOnline)
	authed.POST("/users/add-skill", userHandler.AddSkill)
	authed.DELETE("/users/remove-skill/:skill", userHandler.RemoveSkill)
	authed.GET("/users/activity-stats", userHandler.ActivityStats)
	authed.PUT("/users/admin/:id/role", userHandler.UpdateRole)
	authed.GET("/neighborhoods/:id", neighborhoodHandler.Get)

	authed.GET("/forum/posts", forumHandler.ListPosts)
	authed.GET("/forum/posts/:id", forumHandler.GetPost)
	authed.POST("/forum/posts", forumHandler.CreatePost)
	authed.PUT("/forum/posts/:id", forumHandler.UpdatePost)
	authed.POST("/forum/posts/:id/like", forumHandler.ToggleLike)
	authed.POST("/forum/posts/:id/comments", forumHandler.AddComment)
	authed.DELETE("/forum/posts/:id", forumHandler.DeletePost)

	authed.GET("/marketplace/listings", marketplaceHandler.ListListings)
	authed.GET("/marketplace/listings/:id", marketplaceHandler.GetListing)
	authed.POST("/marketplace/listings", marketplaceHandler.CreateListing)
	authed.PUT("/marketplace/listings/:id", marketplaceHandler.UpdateListing)
	authed.POST("/marketplace/listings/:id/favorite", marketplaceHandler.ToggleFavorite)
	authed.POST("/marketplace/listings/:id/bump", marketplaceHandler.BumpListing)
	authed.DELETE("/marketplace/listings/:id", marketplaceHandler.DeleteListing)
	authed.GET("/marketplace/my-listings", marketplaceHandler.MyListings)
	authed.GET("/marketplace/favorites", marketplaceHandler.Favorites)

	authed.GET("/safety/reports", safetyHandler.ListReports)
	authed.GET("/safety/reports/:id", safetyHandler.GetReport)
	authed.POST("/safety/reports", safetyHandler.CreateReport)
	authed.POST("/safety/reports/:id/acknowledge", safetyHandler.Acknowledge)
	authed.PUT("/safety/reports/:id", safetyHandler.UpdateReport)
	authed.PATCH("/safety/reports/:id/status", safetyHandler.UpdateStatus)
	authed.POST("/safety/reports/:id/verify", safetyHandler.Verify)
	authed.GET("/safety/reports/:id/comments", safetyHandler.ListComments)
	authed.POST("/safety/reports/:id/comments", safetyHandler.AddComment)
	authed.DELETE("/safety/reports/:id", safetyHandler.DeleteReport)
	authed.GET("/safety/stats", safetyHandler.Stats)

	messageHandler.RegisterRoutes(authed.Group("/messages"))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Device-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	healthServer := grpcserver.NewHealthServer(database)
	go healthServer.Watch(ctx, 15*time.Second)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("failed to listen grpc: %v", err)
	}
	go func() {
		if err := healthServer.Serve(grpcListener); err != nil {
			log.Printf("grpc server stopped: %v", err)
		}
	}()

	go func() {
		log.Printf("http listening: addr=%s env=%s", srv.Addr, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	healthServer.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown failed: %v", err)
	}
}
