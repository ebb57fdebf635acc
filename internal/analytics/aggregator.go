package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/serroba/linkstats/internal/shortener"
)

const (
	DefaultWindowDays   = 31
	DefaultRecentClicks = 20

	// DateKeyLayout keys daily counts by full calendar date.
	DateKeyLayout = "2006-01-02"
	// LabelLayout is the day/month label shown to owners.
	LabelLayout = "02/01"
)

// DailyBucket is the click count for one calendar date.
type DailyBucket struct {
	Date  time.Time
	Count int
}

// Label formats the bucket date as day/month.
func (b DailyBucket) Label() string {
	return b.Date.Format(LabelLayout)
}

// Series holds daily buckets ordered from the most recent date backwards.
type Series []DailyBucket

// Total sums the counts of every bucket.
func (s Series) Total() int {
	total := 0
	for _, b := range s {
		total += b.Count
	}

	return total
}

// MarshalJSON encodes the series as an object of label to count, keeping the
// series order. Labels repeat only for dates a year apart.
func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, b := range s {
		if i > 0 {
			buf.WriteByte(',')
		}

		label, err := json.Marshal(b.Label())
		if err != nil {
			return nil, err
		}

		buf.Write(label)
		fmt.Fprintf(&buf, ":%d", b.Count)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Aggregator turns click events into daily series.
type Aggregator struct {
	clicks ClickRepository
	loc    *time.Location
	window int
}

// NewAggregator creates an aggregator bucketing by calendar date in loc (UTC when nil).
func NewAggregator(clicks ClickRepository, loc *time.Location, windowDays int) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}

	if windowDays < 1 {
		windowDays = DefaultWindowDays
	}

	return &Aggregator{
		clicks: clicks,
		loc:    loc,
		window: windowDays,
	}
}

// Aggregate counts the clicks on code for each of the window's calendar dates,
// today first. It issues a single grouped query.
func (a *Aggregator) Aggregate(ctx context.Context, code shortener.Code, now time.Time) (Series, error) {
	local := now.In(a.loc)
	year, month, day := local.Date()

	from := time.Date(year, month, day-(a.window-1), 0, 0, 0, 0, a.loc)
	to := time.Date(year, month, day+1, 0, 0, 0, 0, a.loc)

	counts, err := a.clicks.DailyClickCounts(ctx, code, from, to, a.loc)
	if err != nil {
		return nil, fmt.Errorf("daily click counts: %w", err)
	}

	series := make(Series, a.window)
	for i := range series {
		date := time.Date(year, month, day-i, 0, 0, 0, 0, a.loc)
		series[i] = DailyBucket{
			Date:  date,
			Count: counts[date.Format(DateKeyLayout)],
		}
	}

	return series, nil
}

// RecentClicks returns the latest clicks on code, newest first.
func (a *Aggregator) RecentClicks(ctx context.Context, code shortener.Code, limit int) ([]ClickEvent, error) {
	if limit < 1 {
		limit = DefaultRecentClicks
	}

	return a.clicks.RecentClicks(ctx, code, limit)
}
