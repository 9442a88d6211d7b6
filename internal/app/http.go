package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"worksite/internal/config"
	v1 "worksite/internal/delivery/http/v1"
	"worksite/internal/repository"
	"worksite/internal/services"
	"worksite/internal/storage"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()

	tasksRepo := repository.NewTasks(globalLogger, globalPostgresPool)
	photoStore := storage.New(
		globalLogger,
		globalS3Client,
		cfg.S3.Bucket,
		cfg.S3.Region,
		cfg.S3.PublicBaseURL,
	)

	v1Handler := v1.New(
		globalLogger,
		services.NewTaskService(globalLogger, tasksRepo, photoStore),
		services.NewListingService(globalLogger, tasksRepo),
		cfg.Auth.JWTIssuer,
		cfg.Auth.JWTSigningKey,
	)

	api := router.Group("/api/v1", v1Handler.HandleActorMiddleware)

	taskRouter := api.Group("/tasks")
	taskRouter.GET("", v1Handler.HandleListTasks)
	taskRouter.GET("/deletable", v1Handler.HandleDeleteCandidates)
	taskRouter.POST("", v1Handler.HandleCreateTask)
	taskRouter.POST("/:id/start", v1Handler.HandleStartTask)
	taskRouter.POST("/:id/result", v1Handler.HandleSubmitResult)
	taskRouter.POST("/:id/review", v1Handler.HandleReviewTask)
	taskRouter.POST("/:id/delete", v1Handler.HandleDeleteTask)
}
