package main

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/ui"
)

func main() {
	apiURL := app.Getenv("CONSOLE_API_URL")
	if apiURL == "" {
		apiURL = "/api"
	}
	backend := ui.NewBackend(apiURL)
	ui.RegisterRoutes(backend)
	app.RunWhenOnBrowser()
}
