package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/freshmart/api/internal/config"
	"github.com/freshmart/api/internal/events"
	"github.com/freshmart/api/internal/handlers"
	"github.com/freshmart/api/internal/identity"
	"github.com/freshmart/api/internal/logging"
	"github.com/freshmart/api/internal/mirror"
	"github.com/freshmart/api/internal/repo"
	"github.com/freshmart/api/internal/search"
	"github.com/freshmart/api/internal/syncer"
	httpserver "github.com/freshmart/api/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	mirrorStore, err := mirror.Connect(mirror.ConnectOptions{
		URL:       configuration.SURREAL_URL,
		User:      configuration.SURREAL_USER,
		Password:  configuration.SURREAL_PASSWORD,
		Namespace: configuration.SURREAL_NS,
		Database:  configuration.SURREAL_DB,
	})
	if err != nil {
		log.Fatalf("mirror store init failed: %v", err)
	}

	esClient, err := search.NewClient(configuration.ES_URL, configuration.ES_USER, configuration.ES_PASSWORD)
	if err != nil {
		log.Fatalf("search init failed: %v", err)
	}

	producer := events.NewProducer([]string{configuration.KAFKA_ADDRESS})

	prop := &syncer.Propagator{
		Mirror:    mirrorStore,
		ES:        esClient,
		Index:     search.DefaultIndex,
		Log:       logger,
		Retries:   configuration.MIRROR_RETRIES,
		Backoff:   200 * time.Millisecond,
		NotifyTTL: configuration.NOTIFY_TTL,
	}

	repository := repo.NewGormRepo(db)

	ident := &identity.Middleware{
		Secret: []byte(configuration.IDP_SECRET),
		Policy: identity.AllowList(configuration.ADMIN_EMAILS),
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:            db,
		Identity:      ident,
		Products:      &handlers.ProductHandler{Repo: repository, Prop: prop, Producer: producer},
		Orders:        &handlers.OrderHandler{Repo: repository, Prop: prop, Producer: producer},
		Feedback:      &handlers.FeedbackHandler{Repo: repository, Prop: prop, Producer: producer},
		Notifications: &handlers.NotificationHandler{Prop: prop},
		Admin:         &handlers.AdminHandler{Repo: repository},
		Search:        &handlers.SearchHandler{ES: esClient, Index: search.DefaultIndex},
		Me:            &handlers.MeHandler{},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}
	mirrorStore.Close()

	log.Println("shutdown complete")
}
