package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/account"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/calendar"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/customfield"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/project"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/relation"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/webhook"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/workpackage"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// App holds all application services and provides dependency injection.
// This is the main application container that manages service lifecycles.
type App struct {
	repo        database.DataStore
	db          *sqlx.DB
	eventClient events.EventPublisher
	logger      *slog.Logger

	ProjectService     project.Service
	AccountService     account.Service
	WorkPackageService workpackage.Service
	RelationService    relation.Service
	CalendarService    calendar.Service
	CustomFieldService customfield.Service
	WebhookService     webhook.Service
}

// New creates an App with all services sharing repo
func New(repo database.DataStore, opts ...Option) *App {
	cfg := &appConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	return &App{
		repo:               repo,
		eventClient:        cfg.eventClient,
		logger:             cfg.logger,
		ProjectService:     project.NewService(repo, cfg.eventClient),
		AccountService:     account.NewService(repo, cfg.eventClient),
		WorkPackageService: workpackage.NewService(repo, cfg.eventClient),
		RelationService:    relation.NewService(repo, cfg.eventClient),
		CalendarService:    calendar.NewService(repo, cfg.eventClient),
		CustomFieldService: customfield.NewService(repo, cfg.eventClient),
		WebhookService:     webhook.NewService(repo, cfg.eventClient),
	}
}

// Open initializes the database at path and builds an App over it. The
// database is closed by Close.
func Open(ctx context.Context, path string, opts ...Option) (*App, error) {
	db, err := database.InitDB(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a := New(database.NewRepository(db), opts...)
	a.db = db
	a.logger.Debug("database opened", "path", path)
	return a, nil
}

// Repo returns the underlying repository for direct database access
func (a *App) Repo() database.DataStore {
	return a.repo
}

// Logger returns the logger the app was configured with
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// ActAs returns ctx carrying the principal for login. An empty login acts
// as the operating system user.
func (a *App) ActAs(ctx context.Context, login string) (context.Context, *models.Principal, error) {
	p, err := user.Resolve(ctx, a.repo, login)
	if err != nil {
		return ctx, nil, err
	}
	return user.WithPrincipal(ctx, p), p, nil
}

// Close releases the event connection and the database when the app owns them
func (a *App) Close() error {
	if a.eventClient != nil {
		if err := a.eventClient.Close(); err != nil {
			a.logger.Warn("failed to close event client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
