package engine

// Tier names for the AOV analyzer.
const (
	TierPremium  = "premium"
	TierDiscount = "discount"
)

// AOVTiers segments campaigns by average order value relative to the
// brand's overall AOV. Only campaigns with at least one order are eligible.
type AOVTiers struct {
	OverallAOV float64 `json:"overall_aov"`
	Premium    Tier    `json:"premium"`
	Standard   Tier    `json:"standard"`
	Discount   Tier    `json:"discount"`
}

// ClassifyAOV computes overallAOV = totalRevenue/totalOrders over campaigns
// with orders, then places each: above 1.5x the overall AOV is premium,
// below 0.7x is discount, the rest is standard. Same relative-threshold
// rule as the efficiency analyzer.
func ClassifyAOV(campaigns []CampaignRecord) AOVTiers {
	tiers := AOVTiers{
		Premium:  Tier{Name: TierPremium},
		Standard: Tier{Name: TierStandard},
		Discount: Tier{Name: TierDiscount},
	}

	var totalRevenue float64
	var totalOrders int
	for _, c := range campaigns {
		if c.Orders > 0 {
			totalRevenue += c.Revenue
			totalOrders += c.Orders
		}
	}
	tiers.OverallAOV = safeRatio(totalRevenue, float64(totalOrders))

	for _, c := range campaigns {
		if c.Orders <= 0 {
			continue
		}
		aov := c.Revenue / float64(c.Orders)
		switch {
		case aov > tierHighMultiplier*tiers.OverallAOV:
			tiers.Premium.add(c)
		case aov < tierLowMultiplier*tiers.OverallAOV:
			tiers.Discount.add(c)
		default:
			tiers.Standard.add(c)
		}
	}
	return tiers
}
