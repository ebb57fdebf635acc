// Package sink holds destinations for consumed analytics events.
package sink

import (
	"context"

	"github.com/serroba/linkstats/internal/analytics"
	"go.uber.org/zap"
)

// Log writes every event as a structured log entry.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging sink.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) LinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	l.logger.Info("link created",
		zap.String("code", event.Code),
		zap.String("originalUrl", event.OriginalURL),
		zap.String("ownerId", event.OwnerID),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (l *Log) LinkClicked(_ context.Context, event *analytics.LinkClickedEvent) error {
	l.logger.Info("link clicked",
		zap.String("id", event.ID),
		zap.String("code", event.Code),
		zap.Time("clickedAt", event.ClickedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

var _ analytics.Sink = (*Log)(nil)
