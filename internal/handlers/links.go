package handlers

import (
	"context"
	"time"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/request"
	"github.com/serroba/linkstats/internal/shortener"
	"go.uber.org/zap"
)

// OwnerLinks answers owner-scoped link queries.
type OwnerLinks interface {
	ListByOwner(ctx context.Context, owner shortener.OwnerID) ([]shortener.Link, error)
	OwnedLink(ctx context.Context, code shortener.Code, owner shortener.OwnerID) (*shortener.Link, error)
}

// ClickStats computes the per-link statistics.
type ClickStats interface {
	Aggregate(ctx context.Context, code shortener.Code, now time.Time) (analytics.Series, error)
	RecentClicks(ctx context.Context, code shortener.Code, limit int) ([]analytics.ClickEvent, error)
}

// LinksHandler serves the owner's link list and per-link statistics.
type LinksHandler struct {
	links  OwnerLinks
	stats  ClickStats
	now    func() time.Time
	logger *zap.Logger
}

// NewLinksHandler creates a links handler. now defaults to time.Now when nil.
func NewLinksHandler(links OwnerLinks, stats ClickStats, now func() time.Time, logger *zap.Logger) *LinksHandler {
	if now == nil {
		now = time.Now
	}

	return &LinksHandler{
		links:  links,
		stats:  stats,
		now:    now,
		logger: logger,
	}
}

func (h *LinksHandler) List(ctx context.Context, _ *struct{}) (*ListLinksResponse, error) {
	rc := request.FromContext(ctx)

	links, err := h.links.ListByOwner(ctx, rc.Owner)
	if err != nil {
		return nil, toHTTPError(h.logger, err)
	}

	resp := &ListLinksResponse{}
	resp.Body.Links = make([]LinkView, 0, len(links))

	for i := range links {
		resp.Body.Links = append(resp.Body.Links, linkView(rc.Host, &links[i]))
	}

	return resp, nil
}

func (h *LinksHandler) Detail(ctx context.Context, req *LinkDetailRequest) (*LinkDetailResponse, error) {
	rc := request.FromContext(ctx)

	link, err := h.links.OwnedLink(ctx, shortener.Code(req.Code), rc.Owner)
	if err != nil {
		return nil, toHTTPError(h.logger, err)
	}

	series, err := h.stats.Aggregate(ctx, link.Code, h.now())
	if err != nil {
		return nil, toHTTPError(h.logger, err)
	}

	clicks, err := h.stats.RecentClicks(ctx, link.Code, analytics.DefaultRecentClicks)
	if err != nil {
		return nil, toHTTPError(h.logger, err)
	}

	resp := &LinkDetailResponse{}
	resp.Body.Link = linkView(rc.Host, link)
	resp.Body.ClicksByDay = DaySeries(series)
	resp.Body.TotalInWindow = series.Total()
	resp.Body.RecentClicks = make([]ClickView, 0, len(clicks))
	resp.Body.Days = make([]DayView, 0, len(series))

	for _, c := range clicks {
		resp.Body.RecentClicks = append(resp.Body.RecentClicks, ClickView{
			ID:        c.ID,
			ClickedAt: c.ClickedAt,
			ClientIP:  c.ClientIP,
			UserAgent: c.UserAgent,
			Referrer:  c.Referrer,
		})
	}

	for _, b := range series {
		resp.Body.Days = append(resp.Body.Days, DayView{
			Date:  b.Date.Format(analytics.DateKeyLayout),
			Label: b.Label(),
			Count: b.Count,
		})
	}

	return resp, nil
}

func linkView(host string, link *shortener.Link) LinkView {
	return LinkView{
		Code:        string(link.Code),
		ShortURL:    shortURL(host, link.Code),
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt,
	}
}
