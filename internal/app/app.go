package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/glotbridge/glotbridge-backend/internal/data/db"
	httpX "github.com/glotbridge/glotbridge-backend/internal/http"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/platform/telemetry"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpX.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := telemetry.Init(context.Background(), log, telemetry.Config{
		ServiceName: "glotbridge-backend",
		Environment: cfg.LogMode,
	})

	dbSvc, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbSvc.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbSvc.DB()

	reposet := wireRepos(theDB, log)

	clientset, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset, dbSvc.SupportsSkipLocked())
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset)
	server := wireServer(log, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clientset,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background loops: translation worker, outbox relay
// and the maintenance janitor.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.Worker != nil {
		go func() {
			if err := a.Services.Worker.Start(ctx); err != nil {
				a.Log.Error("worker stopped", "error", err)
			}
		}()
	}
	if a.Services.Relay != nil {
		go func() {
			if err := a.Services.Relay.Start(ctx); err != nil {
				a.Log.Error("relay stopped", "error", err)
			}
		}()
	}
	if a.Services.Janitor != nil {
		if err := a.Services.Janitor.Start(ctx); err != nil {
			a.Log.Error("janitor failed to start", "error", err)
		}
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown", "error", err)
		}
		cancel()
	}
	if a.Services.Janitor != nil {
		a.Services.Janitor.Stop()
	}
	if a.Clients.Sink != nil {
		a.Clients.Sink.Close()
	}
	if a.Clients.Wake != nil {
		a.Clients.Wake.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
