package engine

import "sort"

// Comparison granularity labels.
const (
	ComparisonWoW = "WoW"
	ComparisonMoM = "MoM"
	ComparisonQoQ = "QoQ"
)

// ComparisonWindow picks the recap comparison label and window size from
// the active timeframe. Units are weeks for WoW, months for MoM and
// quarters for QoQ; anything above 365 days gets the widest window.
func ComparisonWindow(timeframeDays int) (label string, units int) {
	switch {
	case timeframeDays <= 28:
		return ComparisonWoW, 4
	case timeframeDays <= 56:
		return ComparisonWoW, 8
	case timeframeDays <= 90:
		return ComparisonMoM, 3
	case timeframeDays <= 180:
		return ComparisonMoM, 6
	case timeframeDays <= 365:
		return ComparisonQoQ, 4
	default:
		return ComparisonQoQ, 8
	}
}

// weeksPerUnit converts a comparison unit to weekly trend points.
func weeksPerUnit(label string) int {
	switch label {
	case ComparisonMoM:
		return 4
	case ComparisonQoQ:
		return 13
	default:
		return 1
	}
}

// FlowRecap is one flow's period-over-period row. Deltas are percentage
// changes for the volume metrics and percentage-point changes for the two
// rates. HasComparison is false when no prior-period trend data exists;
// all deltas are then 0.
type FlowRecap struct {
	FlowID          string  `json:"flow_id"`
	FlowName        string  `json:"flow_name"`
	Status          string  `json:"status"`
	Comparison      string  `json:"comparison"`
	HasComparison   bool    `json:"has_comparison"`
	Revenue         float64 `json:"revenue"`
	RevenueDelta    float64 `json:"revenue_delta"`
	OpensDelta      float64 `json:"opens_delta"`
	ClicksDelta     float64 `json:"clicks_delta"`
	RecipientsDelta float64 `json:"recipients_delta"`
	OpenRateDelta   float64 `json:"open_rate_delta"`
	ClickRateDelta  float64 `json:"click_rate_delta"`
}

// periodTotals sums one comparison window of weekly trend points.
type periodTotals struct {
	revenue    float64
	opens      int
	clicks     int
	recipients int
}

func (p periodTotals) openRate() float64 {
	return safeRatio(float64(p.opens), float64(p.recipients))
}

func (p periodTotals) clickRate() float64 {
	return safeRatio(float64(p.clicks), float64(p.recipients))
}

func sumWindow(points []WeeklyFlowTrendPoint) periodTotals {
	var t periodTotals
	for _, p := range points {
		t.revenue += p.Revenue
		t.opens += p.Opens
		t.clicks += p.Clicks
		t.recipients += p.Recipients
	}
	return t
}

// pctChange is the percentage change from prev to cur, 0 when prev is 0.
func pctChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// splitWindows slices the trend series into the current window (most
// recent n points) and the prior window of equal length preceding it.
// When the series is too short for two full windows it shrinks n to half
// of what is available; under two points there is no comparison.
func splitWindows(points []WeeklyFlowTrendPoint, n int) (cur, prev []WeeklyFlowTrendPoint, ok bool) {
	if len(points) < 2 {
		return nil, nil, false
	}
	sorted := make([]WeeklyFlowTrendPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].WeekStart.Before(sorted[j].WeekStart) })

	if len(sorted) < 2*n {
		n = len(sorted) / 2
	}
	if n == 0 {
		return nil, nil, false
	}
	cur = sorted[len(sorted)-n:]
	prev = sorted[len(sorted)-2*n : len(sorted)-n]
	return cur, prev, true
}

// RecapFlows produces one period-over-period row per flow. The comparison
// is computed from the upstream weekly trend series by splitting it into
// the current window and the equal-length window before it; flows without
// trend data get a zero-delta row with HasComparison=false. The source
// system faked these deltas from thresholds plus a random perturbation —
// this implementation compares real adjacent periods instead.
func RecapFlows(flows []FlowRecord, trends map[string][]WeeklyFlowTrendPoint, timeframeDays int) []FlowRecap {
	label, units := ComparisonWindow(timeframeDays)
	windowWeeks := units * weeksPerUnit(label)

	recaps := make([]FlowRecap, 0, len(flows))
	for _, f := range flows {
		recap := FlowRecap{
			FlowID:     f.ID,
			FlowName:   f.Name,
			Status:     f.Status,
			Comparison: label,
			Revenue:    f.Revenue,
		}

		if cur, prev, ok := splitWindows(trends[f.ID], windowWeeks); ok {
			ct, pt := sumWindow(cur), sumWindow(prev)
			recap.HasComparison = true
			recap.RevenueDelta = pctChange(ct.revenue, pt.revenue)
			recap.OpensDelta = pctChange(float64(ct.opens), float64(pt.opens))
			recap.ClicksDelta = pctChange(float64(ct.clicks), float64(pt.clicks))
			recap.RecipientsDelta = pctChange(float64(ct.recipients), float64(pt.recipients))
			recap.OpenRateDelta = (ct.openRate() - pt.openRate()) * 100
			recap.ClickRateDelta = (ct.clickRate() - pt.clickRate()) * 100
		}

		recaps = append(recaps, recap)
	}
	return recaps
}
