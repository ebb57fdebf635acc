package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/serroba/linkstats/internal/metrics"
	"github.com/serroba/linkstats/internal/shortener"
	"go.uber.org/zap"
)

// ClickEvent is one recorded redirect.
type ClickEvent struct {
	ID        string
	Code      shortener.Code
	ClickedAt time.Time
	ClientIP  string
	UserAgent string
	Referrer  string
}

// Visitor describes who followed a link.
type Visitor struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ClickRepository persists click events and answers the statistics queries.
type ClickRepository interface {
	SaveClick(ctx context.Context, click *ClickEvent) error
	// RecentClicks returns at most limit clicks for code, newest first.
	RecentClicks(ctx context.Context, code shortener.Code, limit int) ([]ClickEvent, error)
	// DailyClickCounts counts clicks in [from, to) grouped by calendar date in loc.
	// Keys are formatted with DateKeyLayout; dates without clicks are absent.
	DailyClickCounts(ctx context.Context, code shortener.Code, from, to time.Time, loc *time.Location) (map[string]int, error)
}

// Recorder appends one click event per redirect.
type Recorder struct {
	clicks  ClickRepository
	publish messaging.Publish[LinkClickedEvent]
	now     func() time.Time
	logger  *zap.Logger
}

// NewRecorder creates a click recorder. now defaults to time.Now when nil.
func NewRecorder(
	clicks ClickRepository,
	publish messaging.Publish[LinkClickedEvent],
	now func() time.Time,
	logger *zap.Logger,
) *Recorder {
	if now == nil {
		now = time.Now
	}

	return &Recorder{
		clicks:  clicks,
		publish: publish,
		now:     now,
		logger:  logger,
	}
}

// Record stores a click on link stamped with the current time. The event is
// published only after the write succeeded; publish failures are logged.
func (r *Recorder) Record(ctx context.Context, link *shortener.Link, visitor Visitor) (*ClickEvent, error) {
	click := &ClickEvent{
		ID:        uuid.NewString(),
		Code:      link.Code,
		ClickedAt: r.now().UTC(),
		ClientIP:  visitor.ClientIP,
		UserAgent: visitor.UserAgent,
		Referrer:  visitor.Referrer,
	}

	if err := r.clicks.SaveClick(ctx, click); err != nil {
		return nil, fmt.Errorf("save click: %w", err)
	}

	metrics.ClicksRecorded.Inc()

	event := &LinkClickedEvent{
		ID:        click.ID,
		Code:      string(click.Code),
		ClickedAt: click.ClickedAt,
		ClientIP:  click.ClientIP,
		UserAgent: click.UserAgent,
		Referrer:  click.Referrer,
	}

	if err := r.publish(ctx, event); err != nil {
		metrics.EventsPublishFailed.WithLabelValues(TopicLinkClicked).Inc()
		r.logger.Error("failed to publish click event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return click, nil
}
