package engine

// Brand-relative tiering thresholds shared by the efficiency and AOV
// analyzers: 50% above the brand average is the top segment, 30% below is
// the bottom one. The segmentation is relative on purpose — what counts as
// "good" differs per brand baseline, so absolute cutoffs would misclassify
// small and large senders alike.
const (
	tierHighMultiplier = 1.5
	tierLowMultiplier  = 0.7
)

// Tier names for the efficiency analyzer.
const (
	TierHighConverters = "highConverters"
	TierStandard       = "standard"
	TierNeedsWork      = "needsWork"
)

// Funnel is the full-account conversion funnel across a campaign set.
// Rates are plain ratios with no clamping; input that violates
// recipients >= opens >= clicks >= conversions passes through untouched.
type Funnel struct {
	Recipients  int `json:"recipients"`
	Opens       int `json:"opens"`
	Clicks      int `json:"clicks"`
	Conversions int `json:"conversions"`

	OpenRate         float64 `json:"open_rate"`
	ClickRate        float64 `json:"click_rate"`
	ConversionRate   float64 `json:"conversion_rate"`
	ClickToOpenRate  float64 `json:"click_to_open_rate"`
	ClickToOrderRate float64 `json:"click_to_order_rate"`
}

// BuildFunnel sums recipients, opens, clicks and orders across all input
// campaigns and derives the five funnel rates. Zero denominators yield a
// 0 rate, never an error.
func BuildFunnel(campaigns []CampaignRecord) Funnel {
	var f Funnel
	for _, c := range campaigns {
		f.Recipients += c.Recipients
		f.Opens += c.Opened
		f.Clicks += c.Clicked
		f.Conversions += c.Orders
	}
	f.OpenRate = safeRatio(float64(f.Opens), float64(f.Recipients))
	f.ClickRate = safeRatio(float64(f.Clicks), float64(f.Recipients))
	f.ConversionRate = safeRatio(float64(f.Conversions), float64(f.Recipients))
	f.ClickToOpenRate = safeRatio(float64(f.Clicks), float64(f.Opens))
	f.ClickToOrderRate = safeRatio(float64(f.Conversions), float64(f.Clicks))
	return f
}

// EfficiencyTiers segments campaigns by click-to-order rate relative to the
// brand average. Only campaigns with at least one click are eligible; every
// eligible campaign lands in exactly one tier.
type EfficiencyTiers struct {
	BrandAvgClickToOrder float64 `json:"brand_avg_click_to_order"`
	HighConverters       Tier    `json:"high_converters"`
	Standard             Tier    `json:"standard"`
	NeedsWork            Tier    `json:"needs_work"`
}

func (t *Tier) add(c CampaignRecord) {
	t.Campaigns = append(t.Campaigns, c)
	t.Revenue += c.Revenue
	t.Clicks += c.Clicked
	t.Orders += c.Orders
}

// ClassifyEfficiency computes brandAvgClickToOrder = totalOrders/totalClicks
// over all campaigns with clicks, then places each such campaign:
// strictly above 1.5x the average is highConverters, strictly below 0.7x is
// needsWork, everything else (boundaries included) is standard.
func ClassifyEfficiency(campaigns []CampaignRecord) EfficiencyTiers {
	tiers := EfficiencyTiers{
		HighConverters: Tier{Name: TierHighConverters},
		Standard:       Tier{Name: TierStandard},
		NeedsWork:      Tier{Name: TierNeedsWork},
	}

	var totalClicks, totalOrders int
	for _, c := range campaigns {
		if c.Clicked > 0 {
			totalClicks += c.Clicked
			totalOrders += c.Orders
		}
	}
	tiers.BrandAvgClickToOrder = safeRatio(float64(totalOrders), float64(totalClicks))

	for _, c := range campaigns {
		if c.Clicked <= 0 {
			continue
		}
		rate := float64(c.Orders) / float64(c.Clicked)
		switch {
		case rate > tierHighMultiplier*tiers.BrandAvgClickToOrder:
			tiers.HighConverters.add(c)
		case rate < tierLowMultiplier*tiers.BrandAvgClickToOrder:
			tiers.NeedsWork.add(c)
		default:
			tiers.Standard.add(c)
		}
	}
	return tiers
}
