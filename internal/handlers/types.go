package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkstats/internal/analytics"
)

// ShortenRequest carries the submitted form. The body is read raw so that both
// urlencoded and multipart submissions are accepted.
type ShortenRequest struct {
	ContentType string `header:"Content-Type"`
	RawBody     []byte `contentType:"application/x-www-form-urlencoded"`
}

// ShortenResponse is the plain-text short URL, or an empty 400 for a rejected link.
type ShortenResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"3f2a9c1b" path:"code"`
}

// RedirectResponse sends the visitor to the original URL without letting
// caches swallow later visits.
type RedirectResponse struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
}

// LinkView is a link as shown to its owner.
type LinkView struct {
	Code        string    `doc:"The short code"     example:"3f2a9c1b"                           json:"code"`
	ShortURL    string    `doc:"The full short URL" example:"https://sho.rt/3f2a9c1b"            json:"shortUrl"`
	OriginalURL string    `doc:"The original URL"   example:"https://example.com/very/long/path" json:"originalUrl"`
	CreatedAt   time.Time `doc:"Creation time"      json:"createdAt"`
}

// ListLinksResponse lists the caller's links, newest first.
type ListLinksResponse struct {
	Body struct {
		Links []LinkView `json:"links"`
	}
}

// LinkDetailRequest selects one of the caller's links.
type LinkDetailRequest struct {
	Code string `doc:"The short code" example:"3f2a9c1b" path:"code"`
}

// ClickView is one recorded visit.
type ClickView struct {
	ID        string    `json:"id"`
	ClickedAt time.Time `json:"clickedAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer"`
}

// DayView is one day of the click series.
type DayView struct {
	Date  string `doc:"Calendar date"   example:"2024-10-15" json:"date"`
	Label string `doc:"Display label"   example:"15/10"      json:"label"`
	Count int    `doc:"Clicks that day" json:"count"`
}

// DaySeries renders the click series as an ordered {"dd/mm": count} object.
type DaySeries analytics.Series

func (s DaySeries) MarshalJSON() ([]byte, error) {
	return analytics.Series(s).MarshalJSON()
}

// Schema describes the series as an object of day labels to counts.
func (DaySeries) Schema(_ huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:                 huma.TypeObject,
		Description:          "Clicks per day keyed by dd/mm, today first",
		AdditionalProperties: &huma.Schema{Type: huma.TypeInteger},
	}
}

// LinkDetailResponse is the statistics view of one link.
type LinkDetailResponse struct {
	Body struct {
		Link          LinkView    `json:"link"`
		RecentClicks  []ClickView `json:"recentClicks"`
		ClicksByDay   DaySeries   `json:"clicksByDay"`
		Days          []DayView   `json:"days"`
		TotalInWindow int         `json:"totalInWindow"`
	}
}

// SessionResponse hands out a fresh owner token.
type SessionResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		OwnerID string `doc:"The new owner id"                 json:"ownerId"`
		Token   string `doc:"Bearer token naming the owner id" json:"token"`
	}
}
