package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Subject-line length cutoffs, in characters.
const (
	shortSubjectMax = 30
	longSubjectMin  = 50
)

// Feature bucket keys produced by MineSubjectFeatures.
const (
	FeatureWithEmoji           = "withEmoji"
	FeatureWithoutEmoji        = "withoutEmoji"
	FeatureShortLines          = "shortLines"
	FeatureLongLines           = "longLines"
	FeatureWithPersonalization = "withPersonalization"
	FeatureWithUrgency         = "withUrgency"
	FeatureWithNumbers         = "withNumbers"
	FeatureWithQuestion        = "withQuestion"
	FeatureWithBrackets        = "withBrackets"
)

var (
	emojiPattern = regexp.MustCompile(`[\x{1F300}-\x{1F5FF}\x{1F600}-\x{1F64F}\x{1F680}-\x{1F6FF}\x{1F900}-\x{1F9FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{2B00}-\x{2BFF}\x{FE0F}]`)
	digitPattern = regexp.MustCompile(`\d`)

	personalizationTokens = []string{"your", "you", "hey", "hi "}

	urgencyVocabulary = []string{
		"limited", "urgent", "expires", "expiring", "last chance",
		"hurry", "ends today", "ends tonight", "final hours",
		"don't miss", "act fast", "today only", "now or never",
	}
)

// hasEmoji reports whether the subject contains a character in the common
// emoji code ranges.
func hasEmoji(subject string) bool { return emojiPattern.MatchString(subject) }

// isShortSubject reports whether the subject is under 30 characters.
func isShortSubject(subject string) bool { return utf8.RuneCountInString(subject) < shortSubjectMax }

// isLongSubject reports whether the subject is over 50 characters.
func isLongSubject(subject string) bool { return utf8.RuneCountInString(subject) > longSubjectMin }

// hasPersonalization reports whether the subject carries a greeting token
// or addresses the reader directly.
func hasPersonalization(subject string) bool {
	lower := strings.ToLower(subject)
	for _, tok := range personalizationTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// hasUrgency reports whether the subject contains a phrase from the fixed
// urgency vocabulary.
func hasUrgency(subject string) bool {
	lower := strings.ToLower(subject)
	for _, phrase := range urgencyVocabulary {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// hasNumbers reports whether the subject contains any digit.
func hasNumbers(subject string) bool { return digitPattern.MatchString(subject) }

// hasQuestion reports whether the subject contains a question mark.
func hasQuestion(subject string) bool { return strings.Contains(subject, "?") }

// hasBrackets reports whether the subject contains an opening bracket,
// parenthesis or brace.
func hasBrackets(subject string) bool { return strings.ContainsAny(subject, "[({") }

// FeatureStats accumulates performance for one subject-line feature bucket.
// Average rates are in percentage form (summed fraction / count * 100).
type FeatureStats struct {
	Count        int      `json:"count"`
	SumOpenRate  float64  `json:"-"`
	SumClickRate float64  `json:"-"`
	Opens        int      `json:"opens"`
	Clicks       int      `json:"clicks"`
	Subjects     []string `json:"subjects"`
	AvgOpenRate  float64  `json:"avg_open_rate"`
	AvgClickRate float64  `json:"avg_click_rate"`
}

func (s *FeatureStats) add(c CampaignRecord) {
	s.Count++
	s.SumOpenRate += c.OpenRate
	s.SumClickRate += c.ClickRate
	s.Opens += c.Opened
	s.Clicks += c.Clicked
	s.Subjects = append(s.Subjects, c.Subject)
}

func (s *FeatureStats) finalize() {
	if s.Count == 0 {
		return
	}
	s.AvgOpenRate = s.SumOpenRate / float64(s.Count) * 100
	s.AvgClickRate = s.SumClickRate / float64(s.Count) * 100
}

// SubjectInsight is one ranked natural-language finding with the literal
// percentage-point gap that backs it.
type SubjectInsight struct {
	Feature     string  `json:"feature"`
	Text        string  `json:"text"`
	DeltaPoints float64 `json:"delta_points"`
}

// SubjectAnalysis is the miner's output: per-feature stats plus up to
// three ranked insight sentences. Insights is empty (never nil) when no
// comparison pair has enough data.
type SubjectAnalysis struct {
	Features map[string]*FeatureStats `json:"features"`
	Insights []SubjectInsight         `json:"insights"`
}

// MineSubjectFeatures extracts boolean features from each campaign's
// subject line. Features are independent: a subject can land in several
// buckets at once.
func MineSubjectFeatures(campaigns []CampaignRecord) SubjectAnalysis {
	features := map[string]*FeatureStats{
		FeatureWithEmoji:           {},
		FeatureWithoutEmoji:        {},
		FeatureShortLines:          {},
		FeatureLongLines:           {},
		FeatureWithPersonalization: {},
		FeatureWithUrgency:         {},
		FeatureWithNumbers:         {},
		FeatureWithQuestion:        {},
		FeatureWithBrackets:        {},
	}

	for _, c := range campaigns {
		if hasEmoji(c.Subject) {
			features[FeatureWithEmoji].add(c)
		} else {
			features[FeatureWithoutEmoji].add(c)
		}
		if isShortSubject(c.Subject) {
			features[FeatureShortLines].add(c)
		}
		if isLongSubject(c.Subject) {
			features[FeatureLongLines].add(c)
		}
		if hasPersonalization(c.Subject) {
			features[FeatureWithPersonalization].add(c)
		}
		if hasUrgency(c.Subject) {
			features[FeatureWithUrgency].add(c)
		}
		if hasNumbers(c.Subject) {
			features[FeatureWithNumbers].add(c)
		}
		if hasQuestion(c.Subject) {
			features[FeatureWithQuestion].add(c)
		}
		if hasBrackets(c.Subject) {
			features[FeatureWithBrackets].add(c)
		}
	}

	for _, s := range features {
		s.finalize()
	}

	return SubjectAnalysis{
		Features: features,
		Insights: generateInsights(features),
	}
}

// generateInsights compares the paired feature buckets and reports the
// standalone personalization/urgency stats, then keeps the three largest
// gaps. Pairs where either side is empty produce nothing.
func generateInsights(features map[string]*FeatureStats) []SubjectInsight {
	insights := []SubjectInsight{}

	withEmoji := features[FeatureWithEmoji]
	withoutEmoji := features[FeatureWithoutEmoji]
	if withEmoji.Count > 0 && withoutEmoji.Count > 0 {
		delta := withEmoji.AvgOpenRate - withoutEmoji.AvgOpenRate
		dir := "higher"
		if delta < 0 {
			dir = "lower"
		}
		insights = append(insights, SubjectInsight{
			Feature:     FeatureWithEmoji,
			DeltaPoints: delta,
			Text: fmt.Sprintf("Subject lines with emojis average a %.1f point %s open rate (%.1f%% vs %.1f%%)",
				abs(delta), dir, withEmoji.AvgOpenRate, withoutEmoji.AvgOpenRate),
		})
	}

	short := features[FeatureShortLines]
	long := features[FeatureLongLines]
	if short.Count > 0 && long.Count > 0 {
		delta := short.AvgOpenRate - long.AvgOpenRate
		dir := "outperform"
		if delta < 0 {
			dir = "underperform"
		}
		insights = append(insights, SubjectInsight{
			Feature:     FeatureShortLines,
			DeltaPoints: delta,
			Text: fmt.Sprintf("Short subject lines (under %d chars) %s long ones by %.1f points on open rate (%.1f%% vs %.1f%%)",
				shortSubjectMax, dir, abs(delta), short.AvgOpenRate, long.AvgOpenRate),
		})
	}

	if p := features[FeatureWithPersonalization]; p.Count > 0 {
		insights = append(insights, SubjectInsight{
			Feature:     FeatureWithPersonalization,
			DeltaPoints: p.AvgOpenRate,
			Text: fmt.Sprintf("Personalized subject lines average a %.1f%% open rate across %d campaigns",
				p.AvgOpenRate, p.Count),
		})
	}

	if u := features[FeatureWithUrgency]; u.Count > 0 {
		insights = append(insights, SubjectInsight{
			Feature:     FeatureWithUrgency,
			DeltaPoints: u.AvgClickRate,
			Text: fmt.Sprintf("Urgency language averages a %.1f%% click rate across %d campaigns",
				u.AvgClickRate, u.Count),
		})
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return abs(insights[i].DeltaPoints) > abs(insights[j].DeltaPoints)
	})
	if len(insights) > 3 {
		insights = insights[:3]
	}
	return insights
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// maxSubjectBars caps the subject bar chart width.
const maxSubjectBars = 15

// SubjectPerformance aggregates every campaign that used the exact same
// subject-line text. Rates are recipient-weighted, in percent.
type SubjectPerformance struct {
	Subject    string  `json:"subject"`
	Campaigns  int     `json:"campaigns"`
	Recipients int     `json:"recipients"`
	Opens      int     `json:"opens"`
	Clicks     int     `json:"clicks"`
	Revenue    float64 `json:"revenue"`
	OpenRate   float64 `json:"open_rate"`
	ClickRate  float64 `json:"click_rate"`
}

// TopSubjects groups campaigns by identical subject text and returns the
// top 15 by the selected metric (revenue, opens, clicks, recipients,
// open_rate or click_rate; anything else falls back to revenue).
func TopSubjects(campaigns []CampaignRecord, metric string) []SubjectPerformance {
	bySubject := make(map[string]*SubjectPerformance)
	for _, c := range campaigns {
		p, ok := bySubject[c.Subject]
		if !ok {
			p = &SubjectPerformance{Subject: c.Subject}
			bySubject[c.Subject] = p
		}
		p.Campaigns++
		p.Recipients += c.Recipients
		p.Opens += c.Opened
		p.Clicks += c.Clicked
		p.Revenue += c.Revenue
	}

	out := make([]SubjectPerformance, 0, len(bySubject))
	for _, p := range bySubject {
		p.OpenRate = safeRatio(float64(p.Opens), float64(p.Recipients)) * 100
		p.ClickRate = safeRatio(float64(p.Clicks), float64(p.Recipients)) * 100
		out = append(out, *p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return subjectMetric(out[i], metric) > subjectMetric(out[j], metric)
	})
	if len(out) > maxSubjectBars {
		out = out[:maxSubjectBars]
	}
	return out
}

func subjectMetric(p SubjectPerformance, metric string) float64 {
	switch metric {
	case "opens":
		return float64(p.Opens)
	case "clicks":
		return float64(p.Clicks)
	case "recipients":
		return float64(p.Recipients)
	case "open_rate":
		return p.OpenRate
	case "click_rate":
		return p.ClickRate
	default:
		return p.Revenue
	}
}
