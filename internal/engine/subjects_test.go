package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectPredicates(t *testing.T) {
	assert.True(t, hasEmoji("🎉 Flash Sale!"))
	assert.False(t, hasEmoji("Flash Sale"))

	assert.True(t, isShortSubject("Flash Sale"))
	assert.False(t, isShortSubject(strings.Repeat("x", 30)))
	assert.True(t, isLongSubject(strings.Repeat("x", 51)))
	assert.False(t, isLongSubject(strings.Repeat("x", 50)))

	assert.True(t, hasPersonalization("Your order is waiting"))
	assert.True(t, hasPersonalization("Hey there, come back"))
	assert.False(t, hasPersonalization("Flash Sale"))

	assert.True(t, hasUrgency("Last chance to save"))
	assert.True(t, hasUrgency("Offer expires tonight"))
	assert.False(t, hasUrgency("New arrivals for spring"))

	assert.True(t, hasNumbers("Save 20% today"))
	assert.False(t, hasNumbers("Save big today"))

	assert.True(t, hasQuestion("Ready to save?"))
	assert.True(t, hasBrackets("[VIP] Early access"))
	assert.True(t, hasBrackets("Early access (today)"))
	assert.False(t, hasBrackets("Early access"))
}

// TestMineSubjectFeatures_EmojiExample is the reference example: two
// campaigns differing only by an emoji, open rates 0.30 and 0.20. The
// emoji insight must report the literal 10.0 point gap.
func TestMineSubjectFeatures_EmojiExample(t *testing.T) {
	campaigns := []CampaignRecord{
		{Subject: "🎉 Flash Sale!", OpenRate: 0.30},
		{Subject: "Flash Sale", OpenRate: 0.20},
	}

	analysis := MineSubjectFeatures(campaigns)

	assert.Equal(t, 30.0, analysis.Features[FeatureWithEmoji].AvgOpenRate)
	assert.Equal(t, 20.0, analysis.Features[FeatureWithoutEmoji].AvgOpenRate)

	var emojiInsight *SubjectInsight
	for i := range analysis.Insights {
		if analysis.Insights[i].Feature == FeatureWithEmoji {
			emojiInsight = &analysis.Insights[i]
		}
	}
	require.NotNil(t, emojiInsight)
	assert.InDelta(t, 10.0, emojiInsight.DeltaPoints, 1e-9)
	assert.Contains(t, emojiInsight.Text, "10.0 point higher")
}

func TestMineSubjectFeatures_IndependentMembership(t *testing.T) {
	// One subject that hits emoji, urgency, numbers, question and brackets
	// at once: features are independent, not exclusive.
	campaigns := []CampaignRecord{
		{Subject: "🔥 [VIP] Last chance: 50% off — ready?", OpenRate: 0.4, ClickRate: 0.05},
	}

	analysis := MineSubjectFeatures(campaigns)

	assert.Equal(t, 1, analysis.Features[FeatureWithEmoji].Count)
	assert.Equal(t, 1, analysis.Features[FeatureWithUrgency].Count)
	assert.Equal(t, 1, analysis.Features[FeatureWithNumbers].Count)
	assert.Equal(t, 1, analysis.Features[FeatureWithQuestion].Count)
	assert.Equal(t, 1, analysis.Features[FeatureWithBrackets].Count)
	assert.Equal(t, 0, analysis.Features[FeatureWithoutEmoji].Count)
}

// TestMineSubjectFeatures_GracefulEmptyState: no data in any comparison
// pair means no insights, not an error and not nil.
func TestMineSubjectFeatures_GracefulEmptyState(t *testing.T) {
	analysis := MineSubjectFeatures(nil)

	assert.NotNil(t, analysis.Insights)
	assert.Empty(t, analysis.Insights)

	// Single-sided emoji data: still no emoji comparison possible
	analysis = MineSubjectFeatures([]CampaignRecord{{Subject: "Plain subject here", OpenRate: 0.2}})
	for _, ins := range analysis.Insights {
		assert.NotEqual(t, FeatureWithEmoji, ins.Feature)
	}
}

func TestMineSubjectFeatures_AtMostThreeInsights(t *testing.T) {
	campaigns := []CampaignRecord{
		{Subject: "🎉 Sale", OpenRate: 0.50, ClickRate: 0.08},
		{Subject: strings.Repeat("long subject line here ", 3), OpenRate: 0.10, ClickRate: 0.01},
		{Subject: "Your last chance to save big today", OpenRate: 0.30, ClickRate: 0.04},
		{Subject: "Hurry, offer expires soon for you", OpenRate: 0.25, ClickRate: 0.03},
	}

	analysis := MineSubjectFeatures(campaigns)

	assert.LessOrEqual(t, len(analysis.Insights), 3)
	// Ranked by absolute gap, descending
	for i := 1; i < len(analysis.Insights); i++ {
		assert.GreaterOrEqual(t,
			abs(analysis.Insights[i-1].DeltaPoints),
			abs(analysis.Insights[i].DeltaPoints))
	}
}

func TestTopSubjects_GroupsByExactText(t *testing.T) {
	campaigns := []CampaignRecord{
		{Subject: "Weekly Digest", Recipients: 1000, Opened: 200, Clicked: 20, Revenue: 150},
		{Subject: "Weekly Digest", Recipients: 1000, Opened: 300, Clicked: 40, Revenue: 250},
		{Subject: "One-off Promo", Recipients: 500, Opened: 100, Clicked: 10, Revenue: 900},
	}

	top := TopSubjects(campaigns, "revenue")

	require.Len(t, top, 2)
	assert.Equal(t, "One-off Promo", top[0].Subject)
	assert.Equal(t, "Weekly Digest", top[1].Subject)
	assert.Equal(t, 2, top[1].Campaigns)
	assert.Equal(t, 2000, top[1].Recipients)
	// Weighted rate: 500 opens / 2000 recipients = 25%
	assert.Equal(t, 25.0, top[1].OpenRate)
}

func TestTopSubjects_CapsAt15(t *testing.T) {
	var campaigns []CampaignRecord
	for i := 0; i < 30; i++ {
		campaigns = append(campaigns, CampaignRecord{
			Subject:    strings.Repeat("s", i+1),
			Recipients: 100,
			Opened:     i,
		})
	}

	top := TopSubjects(campaigns, "opens")

	assert.Len(t, top, maxSubjectBars)
	assert.Equal(t, 29, top[0].Opens)
}

func TestTopSubjects_ZeroRecipientsRate(t *testing.T) {
	top := TopSubjects([]CampaignRecord{{Subject: "No sends yet", Recipients: 0, Opened: 0}}, "open_rate")

	require.Len(t, top, 1)
	assert.Equal(t, 0.0, top[0].OpenRate)
}
