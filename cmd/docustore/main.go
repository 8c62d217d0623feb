package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/totegamma/carelog/internal/config"
	"github.com/totegamma/carelog/internal/infrastructure/providers"
	"github.com/totegamma/carelog/internal/infrastructure/tracing"
	"github.com/totegamma/carelog/internal/present/rest"
	authmw "github.com/totegamma/carelog/internal/present/rest/middleware"
	"github.com/totegamma/carelog/internal/service"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "/etc/carelog/docustore.yaml", "path to config file")
	flag.Parse()

	conf, err := config.LoadDocustore(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, _ := config.ParseLevel(conf.Server.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if conf.Server.EnableTrace {
		cleanup, err := tracing.Setup(conf.Server.TraceEndpoint, "docustore", version)
		if err != nil {
			slog.Error("failed to setup tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	db, err := providers.NewDatabase(conf.Server)
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	signalService := providers.NewSignal(conf.Server)
	document, err := providers.NewDocumentUsecase(conf, db, providers.NewMemcache(conf.Server.MemcachedAddr), signalService)
	if err != nil {
		slog.Error("failed to build document usecase", slog.String("error", err.Error()))
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("docustore"))
	}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(authmw.NewAuthMiddleware(service.NewAuthService(conf.Contracts())).IdentifyIdentity)

	rest.NewHandler(conf.Contract, document, signalService).RegisterRoutes(e)

	go func() {
		if err := e.Start(conf.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
}
