package main

import (
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"

	"pogawedka/internal/api"
	"pogawedka/internal/auth"
	"pogawedka/internal/config"
	"pogawedka/internal/token"
)

var (
	mainApp fyne.App
	window  fyne.Window

	cfg    *config.Config
	logg   zerolog.Logger
	client *api.Client
	tokens *token.Store
	ctrl   *auth.Controller
)

func main() {
	cfg = config.Load()
	logg = newLogger(cfg.Env)

	var err error
	tokens, err = token.Open(cfg.DBFile)
	if err != nil {
		logg.Fatal().Err(err).Str("path", cfg.DBFile).Msg("could not open token store")
	}
	defer tokens.Close()

	client = api.NewClient(cfg.BaseURL, logg)
	ctrl = auth.NewController(tokens, client)
	ctrl.OnChange = func(authenticated bool) {
		// Logout is the only transition that needs a redirect here; the
		// login panel navigates to the profile itself.
		if !authenticated {
			showAuth()
		}
	}

	mainApp = app.New()
	window = mainApp.NewWindow("Pogawędka")
	window.Resize(fyne.NewSize(900, 700))

	if ctrl.Authenticated() {
		showProfile()
	} else {
		showAuth()
	}

	window.ShowAndRun()
}

func newLogger(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "dev" {
		cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(cw).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
