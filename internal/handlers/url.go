package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/serroba/linkstats/internal/metrics"
	"github.com/serroba/linkstats/internal/request"
	"github.com/serroba/linkstats/internal/shortener"
	"go.uber.org/zap"
)

const (
	formField        = "link"
	maxFormMemory    = 1 << 20
	noStoreDirective = "private, no-store"
)

// LinkCreator shortens submitted URLs.
type LinkCreator interface {
	Shorten(ctx context.Context, rawURL string, owner shortener.OwnerID) (*shortener.Link, error)
}

// Redirector resolves a code to its target, recording the visit.
type Redirector interface {
	Resolve(ctx context.Context, code shortener.Code, visitor analytics.Visitor) (string, error)
}

// URLHandler handles URL shortening and redirects.
type URLHandler struct {
	links              LinkCreator
	redirects          Redirector
	publishLinkCreated messaging.Publish[analytics.LinkCreatedEvent]
	logger             *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	links LinkCreator,
	redirects Redirector,
	publishLinkCreated messaging.Publish[analytics.LinkCreatedEvent],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		links:              links,
		redirects:          redirects,
		publishLinkCreated: publishLinkCreated,
		logger:             logger,
	}
}

func (h *URLHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	rc := request.FromContext(ctx)

	raw, err := formValue(req.ContentType, req.RawBody, formField)
	if err != nil {
		h.logger.Debug("unreadable shorten form", zap.Error(err))

		return &ShortenResponse{Status: http.StatusBadRequest}, nil
	}

	link, err := h.links.Shorten(ctx, raw, rc.Owner)
	if errors.Is(err, shortener.ErrInvalidURL) {
		return &ShortenResponse{Status: http.StatusBadRequest}, nil
	}

	if err != nil {
		return nil, toHTTPError(h.logger, err)
	}

	event := &analytics.LinkCreatedEvent{
		Code:        string(link.Code),
		OriginalURL: link.OriginalURL,
		OwnerID:     string(link.Owner),
		CreatedAt:   link.CreatedAt,
		ClientIP:    rc.ClientIP,
		UserAgent:   rc.UserAgent,
	}

	if err := h.publishLinkCreated(ctx, event); err != nil {
		metrics.EventsPublishFailed.WithLabelValues(analytics.TopicLinkCreated).Inc()
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return &ShortenResponse{
		Status:      http.StatusOK,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(shortURL(rc.Host, link.Code)),
	}, nil
}

func (h *URLHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	target, err := h.redirects.Resolve(ctx, shortener.Code(req.Code), request.FromContext(ctx).Visitor())
	if err != nil {
		return nil, toHTTPError(h.logger, err)
	}

	return &RedirectResponse{
		Status:       http.StatusFound,
		Location:     target,
		CacheControl: noStoreDirective,
	}, nil
}

func shortURL(host string, code shortener.Code) string {
	return fmt.Sprintf("https://%s/%s", host, code)
}

// formValue extracts field from a urlencoded or multipart body.
func formValue(contentType string, body []byte, field string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		values, parseErr := url.ParseQuery(string(body))
		if parseErr != nil {
			return "", fmt.Errorf("parse form: %w", parseErr)
		}

		return values.Get(field), nil
	}

	form, err := multipart.NewReader(bytes.NewReader(body), params["boundary"]).ReadForm(maxFormMemory)
	if err != nil {
		return "", fmt.Errorf("parse multipart form: %w", err)
	}

	defer func() { _ = form.RemoveAll() }()

	if values := form.Value[field]; len(values) > 0 {
		return values[0], nil
	}

	return "", nil
}
