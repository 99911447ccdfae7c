package app

import "go.trai.ch/stitch/internal/core/ports"

// Components contains all the initialized application components.
// It serves as the dependency injection root for the CLI.
type Components struct {
	App    *App
	Logger ports.Logger
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, logger ports.Logger) *Components {
	return &Components{
		App:    app,
		Logger: logger,
	}
}
