package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/inkpress/blog_platform/internal/config"
	"github.com/inkpress/blog_platform/internal/es"
	"github.com/inkpress/blog_platform/internal/handlers"
	"github.com/inkpress/blog_platform/internal/logging"
	mwauth "github.com/inkpress/blog_platform/internal/middleware/auth"
	loggingmw "github.com/inkpress/blog_platform/internal/middleware/logging"
	"github.com/inkpress/blog_platform/internal/mykafka"
	"github.com/inkpress/blog_platform/internal/repo"
	"github.com/inkpress/blog_platform/internal/service"
	"github.com/inkpress/blog_platform/internal/service/search"
	"github.com/inkpress/blog_platform/internal/storage"
	"github.com/inkpress/blog_platform/internal/tokens"
	httpserver "github.com/inkpress/blog_platform/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(context.Background(), configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	users := &repo.UserRepo{DB: db}
	codec := &tokens.Codec{
		AccessSecret:  []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}
	sessions := &service.SessionService{Users: users, Codec: codec}
	identity := &mwauth.Identity{Users: users, Codec: codec}
	index := &search.Index{ES: esClient, Name: "posts"}
	media := &storage.MediaStore{
		Region:    configuration.S3_REGION,
		Endpoint:  configuration.S3_ENDPOINT,
		Bucket:    configuration.S3_BUCKET,
		AccessKey: configuration.S3_ACCESS_KEY,
		SecretKey: configuration.S3_SECRET_KEY,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		Identity:  identity,
		Auth:      &handlers.AuthHandler{Svc: sessions, Producer: prod},
		Posts:     &handlers.PostHandler{DB: db, Producer: prod, Indexer: index},
		Comments:  &handlers.CommentHandler{DB: db, Producer: prod},
		Analytics: &handlers.AnalyticsHandler{DB: db},
		Search:    &handlers.SearchHandler{Index: index},
		Media:     &handlers.MediaHandler{Users: users, Store: media},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
