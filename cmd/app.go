package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodtunes/internal/auth"
	"github.com/desertthunder/moodtunes/internal/chat"
	"github.com/desertthunder/moodtunes/internal/repositories"
	"github.com/desertthunder/moodtunes/internal/server"
	"github.com/desertthunder/moodtunes/internal/services"
	"github.com/desertthunder/moodtunes/internal/session"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// App is the wired application: storage, backend client, auth coordinator and chat engine.
type App struct {
	DB      *sql.DB
	Backend *services.BackendClient
	Server  *server.CallbackServer
	Popups  *auth.PopupController
	Auth    *auth.Coordinator
	Chat    *chat.Engine
	Moods   *repositories.MoodRepository
	// Spotify is nil unless client credentials are configured.
	Spotify *services.SpotifyService

	unsubscribe func()
}

// AppOpts configures [NewApp].
type AppOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Headless   func() bool
	// Navigator shows redirect login URLs. Nil prints them to Output.
	Navigator auth.Navigator
}

// NewApp opens the database and wires every component from config.
func NewApp(ctx context.Context, opts AppOpts) (*App, error) {
	config, logger := opts.Config, opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	backend, err := services.NewBackendClient(config.Backend, opts.HTTPClient, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	clock := shared.SystemClock{}
	moods := repositories.NewMoodRepository(db)
	store := session.NewStorage(
		repositories.NewSessionRepository(db),
		repositories.NewFlagRepository(db),
		config.Session, clock, logger,
	)
	verifier := session.NewVerifier(backend, config.Auth.VerifyMode, logger)

	navigator := opts.Navigator
	if navigator == nil {
		navigator = auth.NewTerminalNavigator(opts.Output)
	}

	srv := server.NewCallbackServer(config.Auth.CallbackHost, config.Auth.CallbackPort, logger)
	popups := auth.NewPopupController(auth.NewBrowserOpener(srv, logger), srv, navigator, config.Auth, clock, logger)

	coordinatorOpts := []auth.Option{auth.WithLogger(logger)}
	if opts.Headless != nil {
		coordinatorOpts = append(coordinatorOpts, auth.WithHeadlessCheck(opts.Headless))
	}
	coordinator := auth.NewCoordinator(backend, verifier, store, popups, config.Auth.Strategy, coordinatorOpts...)

	engine := chat.NewEngine(coordinator, backend, moods, config.Chat, clock, logger)

	app := &App{
		DB:      db,
		Backend: backend,
		Server:  srv,
		Popups:  popups,
		Auth:    coordinator,
		Chat:    engine,
		Moods:   moods,
	}
	app.unsubscribe = coordinator.Subscribe(engine.HandleEvent)

	if config.Spotify.Enabled() {
		spotify, err := services.NewSpotifyService(ctx, config.Spotify, logger)
		if err != nil {
			logger.Warn("spotify lookups disabled", "error", err)
		} else {
			app.Spotify = spotify
		}
	}

	return app, nil
}

// Close stops the callback server, waits for background logout calls and closes the database.
func (a *App) Close(ctx context.Context) error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.Popups.Cancel()

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop callback server: %w", err))
	}
	a.Auth.Close()
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}
