package ports

import "go.trai.ch/stitch/internal/core/domain"

// Logger defines the interface for logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)
}

// ComponentWarner is implemented by loggers that record skipped components as
// structured fields instead of a formatted message.
type ComponentWarner interface {
	WarnComponent(w domain.Warning)
}
