package engine

import (
	"sort"
	"time"
)

// maxChartBuckets caps the number of points a chart series carries. The
// dashboard renders a fixed-width chart, so older buckets are dropped.
const maxChartBuckets = 20

// Summable field names accepted by AggregateSeries.
const (
	FieldRevenue    = "revenue"
	FieldRecipients = "recipients"
	FieldOpens      = "opens"
	FieldClicks     = "clicks"
	FieldOrders     = "orders"
)

// SeriesPoint is one time bucket of a chart series: a display label, the
// bucket's implied start date (used for ordering, never the label string),
// and the accumulated value per requested field.
type SeriesPoint struct {
	Label  string             `json:"label"`
	Start  time.Time          `json:"start"`
	Values map[string]float64 `json:"values"`
}

// weekStart returns the Sunday that starts t's week, truncated to midnight UTC.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// monthStart returns the first day of t's calendar month in UTC.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// bucketFor maps a timestamp to its chart bucket for the active timeframe.
// Timeframes of 90 days or less bucket by week (labelled by the Sunday that
// starts the week), longer timeframes bucket by calendar month.
func bucketFor(t time.Time, timeframeDays int) (label string, start time.Time) {
	if timeframeDays <= Timeframe90 {
		start = weekStart(t)
		return start.Format("Jan 2"), start
	}
	start = monthStart(t)
	return start.Format("Jan 2006"), start
}

// fieldValue pulls a summable numeric field off a campaign by name.
// Unknown field names contribute 0.
func fieldValue(c CampaignRecord, field string) float64 {
	switch field {
	case FieldRevenue:
		return c.Revenue
	case FieldRecipients:
		return float64(c.Recipients)
	case FieldOpens:
		return float64(c.Opened)
	case FieldClicks:
		return float64(c.Clicked)
	case FieldOrders:
		return float64(c.Orders)
	}
	return 0
}

// AggregateSeries buckets campaigns by send time and sums the requested
// fields into each bucket. Campaigns without a send timestamp are excluded.
// The result is sorted ascending by bucket start date and truncated to the
// trailing maxChartBuckets buckets.
func AggregateSeries(campaigns []CampaignRecord, fields []string, timeframeDays int) []SeriesPoint {
	byStart := make(map[time.Time]*SeriesPoint)

	for _, c := range campaigns {
		if c.SentAt == nil {
			continue
		}
		label, start := bucketFor(*c.SentAt, timeframeDays)
		pt, ok := byStart[start]
		if !ok {
			pt = &SeriesPoint{Label: label, Start: start, Values: make(map[string]float64, len(fields))}
			byStart[start] = pt
		}
		for _, f := range fields {
			pt.Values[f] += fieldValue(c, f)
		}
	}

	points := make([]SeriesPoint, 0, len(byStart))
	for _, pt := range byStart {
		points = append(points, *pt)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Start.Before(points[j].Start) })

	if len(points) > maxChartBuckets {
		points = points[len(points)-maxChartBuckets:]
	}
	return points
}

// RevenuePerRecipientSeries wraps AggregateSeries to produce the RPR chart:
// per bucket, revenue divided by recipients, 0 when a bucket had no
// recipients.
func RevenuePerRecipientSeries(campaigns []CampaignRecord, timeframeDays int) []SeriesPoint {
	base := AggregateSeries(campaigns, []string{FieldRevenue, FieldRecipients}, timeframeDays)
	out := make([]SeriesPoint, 0, len(base))
	for _, pt := range base {
		out = append(out, SeriesPoint{
			Label: pt.Label,
			Start: pt.Start,
			Values: map[string]float64{
				"rpr": safeRatio(pt.Values[FieldRevenue], pt.Values[FieldRecipients]),
			},
		})
	}
	return out
}

// ListGrowthSeries buckets daily list-growth records for the growth chart.
// Net growth is subscribed minus unsubscribed per bucket.
func ListGrowthSeries(records []ListGrowthRecord, timeframeDays int) []SeriesPoint {
	byStart := make(map[time.Time]*SeriesPoint)

	for _, r := range records {
		if r.Date == nil {
			continue
		}
		label, start := bucketFor(*r.Date, timeframeDays)
		pt, ok := byStart[start]
		if !ok {
			pt = &SeriesPoint{Label: label, Start: start, Values: make(map[string]float64, 3)}
			byStart[start] = pt
		}
		pt.Values["subscribed"] += float64(r.Subscribed)
		pt.Values["unsubscribed"] += float64(r.Unsubscribed)
		pt.Values["net"] += float64(r.Subscribed - r.Unsubscribed)
	}

	points := make([]SeriesPoint, 0, len(byStart))
	for _, pt := range byStart {
		points = append(points, *pt)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Start.Before(points[j].Start) })

	if len(points) > maxChartBuckets {
		points = points[len(points)-maxChartBuckets:]
	}
	return points
}
