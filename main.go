package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"trailrunner/internal/auth"
	"trailrunner/internal/config"
	"trailrunner/internal/logging"
	"trailrunner/internal/service"
	"trailrunner/internal/store"
	"trailrunner/internal/strava"
	"trailrunner/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "trailrunner:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s\n\n", filepath.Join(configDir, "config.toml"))
		fmt.Println("You need to add your Strava API credentials.")
		fmt.Println("Get them from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s\n", filepath.Join(configDir, "config.toml"))
		return nil
	}

	configDir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(logging.SetupParams{
		FileName: filepath.Join(configDir, "trailrunner.log"),
		Level:    cfg.Logging.Level,
		JSON:     cfg.Logging.JSON,
	})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logCloser.Close()

	st, err := store.OpenDefault(config.AppDirName)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	oauthCfg := auth.NewOAuthConfig(auth.Credentials{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
	}, auth.CallbackPort)

	storedAuth, err := st.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Println("No authentication found. Starting OAuth flow...")
		if storedAuth, err = authenticate(ctx, st, oauthCfg); err != nil {
			return fmt.Errorf("authentication: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("checking auth: %w", err)
	}

	tokenSource := newTokenSource(ctx, st, oauthCfg, storedAuth)
	if _, err := tokenSource.Token(); err != nil {
		log.WithError(err).Warn("stored token rejected")
		fmt.Println("Stored token is invalid or expired. Re-authenticating...")
		if storedAuth, err = authenticate(ctx, st, oauthCfg); err != nil {
			return fmt.Errorf("re-authentication: %w", err)
		}
		tokenSource = newTokenSource(ctx, st, oauthCfg, storedAuth)
	}

	athleteID := storedAuth.AthleteID
	cache := service.NewActivityCache(service.ActivityCacheSize, time.Duration(cfg.Analysis.CacheTTLMinutes)*time.Minute)

	stravaClient := strava.NewClient(tokenSource)
	syncSvc := service.NewSyncService(stravaClient, st, cache, athleteID, service.SyncOptionsFromConfig(cfg.Analysis))
	querySvc := service.NewQueryService(st, cache, syncSvc, athleteID, service.SettingsFromConfig(cfg))
	routeSvc := service.NewRouteService(querySvc)
	goalSvc := service.NewGoalService(st, querySvc, athleteID)

	log.WithField("athlete_id", athleteID).Info("starting trailrunner")

	app := tui.NewApp(tui.Services{
		Query: querySvc,
		Sync:  syncSvc,
		Route: routeSvc,
		Goals: goalSvc,
	}, tui.NewUnits(cfg.Display))
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}

func newTokenSource(ctx context.Context, st *store.Store, cfg *oauth2.Config, a *store.Auth) oauth2.TokenSource {
	token := &oauth2.Token{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		Expiry:       a.ExpiresAt,
	}
	return auth.NewPersistingSource(ctx, cfg, token, func(t *oauth2.Token) error {
		return st.UpdateTokens(t.AccessToken, t.RefreshToken, t.Expiry)
	})
}

func authenticate(ctx context.Context, st *store.Store, cfg *oauth2.Config) (*store.Auth, error) {
	session, err := auth.Login(ctx, cfg, os.Stdout)
	if err != nil {
		return nil, err
	}

	storedAuth := &store.Auth{
		AthleteID:    session.AthleteID,
		AccessToken:  session.Token.AccessToken,
		RefreshToken: session.Token.RefreshToken,
		ExpiresAt:    session.Token.Expiry,
	}
	if err := st.SaveAuth(storedAuth); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}

	fmt.Printf("\nSuccessfully authenticated as athlete %d!\n", session.AthleteID)
	return storedAuth, nil
}
