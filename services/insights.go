package services

import (
	"fmt"
	"sort"
	"time"

	"plusauto-intel/config"
	"plusauto-intel/models"
	"plusauto-intel/utils"
)

// Price segment boundaries in EUR.
const (
	luxuryFloor   = 100000
	midRangeFloor = 29000
	midRangeCeil  = 40000
)

// ruleContext carries the aggregates every rule predicate and builder sees.
// The evaluation time is injected so the seasonal rule stays unit-testable.
type ruleContext struct {
	data        *models.RawExtraction
	avgPrice    float64
	medianPrice int
	luxuryPct   float64
	midRangePct float64
	leader      *models.DealerRecord
	now         time.Time
}

// insightRule is one entry of the fixed, ordered rule table. Rules are
// evaluated in table order and the kept insights preserve that order; they
// are never re-sorted by confidence or impact.
type insightRule struct {
	when  func(*ruleContext) bool
	build func(*ruleContext) models.Insight
}

var insightRules = []insightRule{
	{
		when: func(c *ruleContext) bool { return c.luxuryPct > 25 },
		build: func(c *ruleContext) models.Insight {
			return models.Insight{
				Kind:  models.KindMarketTrend,
				Title: "Premium Market Dominance",
				Description: fmt.Sprintf(
					"Luxury vehicles represent %.1f%% of inventory, indicating strong premium market positioning and an affluent buyer base.",
					c.luxuryPct),
				Confidence:     0.92,
				Impact:         models.ImpactHigh,
				Recommendation: "Focus marketing on high-value customers and premium vehicle acquisition.",
			}
		},
	},
	{
		when: func(c *ruleContext) bool { return c.avgPrice > 100000 },
		build: func(c *ruleContext) models.Insight {
			return models.Insight{
				Kind:  models.KindPricingStrategy,
				Title: "High-Value Market Position",
				Description: fmt.Sprintf(
					"Average price of %s positions the marketplace at the premium end, significantly above the mass market.",
					utils.FormatEUR(c.avgPrice)),
				Confidence:     0.89,
				Impact:         models.ImpactHigh,
				Recommendation: "Leverage premium positioning in marketing and dealer partnerships.",
			}
		},
	},
	{
		when: func(c *ruleContext) bool { return c.leader != nil },
		build: func(c *ruleContext) models.Insight {
			share := c.leader.MarketShare(c.data.TotalListings)
			return models.Insight{
				Kind:  models.KindCompetitiveIntelligence,
				Title: utils.TitleFromSlug(c.leader.Name) + " Market Leadership",
				Description: fmt.Sprintf(
					"Leading dealer with %s listings (%.2f%% market share), demonstrating strong inventory management.",
					utils.FormatInt(c.leader.ListingCount), share),
				Confidence:     0.95,
				Impact:         models.ImpactMedium,
				Recommendation: "Monitor competitive responses and consider partnership opportunities.",
			}
		},
	},
	{
		when: func(c *ruleContext) bool { return c.midRangePct < 25 },
		build: func(c *ruleContext) models.Insight {
			return models.Insight{
				Kind:  models.KindMarketOpportunity,
				Title: "Mid-Range Market Gap",
				Description: fmt.Sprintf(
					"Only %.1f%% of inventory in the €29-40K range suggests an underserved mid-market segment.",
					c.midRangePct),
				Confidence:     0.83,
				Impact:         models.ImpactMedium,
				Recommendation: "Encourage dealers to expand mid-range inventory for broader market coverage.",
			}
		},
	},
	{
		// Calendar-keyed placeholder rule; its business justification is
		// unclear, but the cadence is part of the report contract.
		when: func(c *ruleContext) bool {
			_, week := c.now.ISOWeek()
			return week%4 == 0
		},
		build: func(c *ruleContext) models.Insight {
			return models.Insight{
				Kind:           models.KindPrediction,
				Title:          "Seasonal Market Adjustment Expected",
				Description:    "Market patterns suggest 5-8% inventory adjustment in the next 30 days based on seasonal trends.",
				Confidence:     0.76,
				Impact:         models.ImpactLow,
				Recommendation: "Prepare for seasonal inventory fluctuations and adjust marketing accordingly.",
			}
		},
	},
}

// Generator evaluates the insight rule table over an extraction batch.
type Generator struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewGenerator creates a Generator with the given configuration and logger.
func NewGenerator(cfg *config.Config, logger *utils.Logger) *Generator {
	return &Generator{cfg: cfg, logger: logger}
}

// Generate computes the pricing aggregates, evaluates every rule in order,
// filters by the confidence threshold, caps the insight count and assembles
// the immutable session payload. The evaluation time is a parameter so the
// result is a pure function of its inputs.
func (g *Generator) Generate(data *models.RawExtraction, now time.Time) *models.IntelligenceSession {
	sessionID := fmt.Sprintf("intel_%s", now.Format("20060102_150405"))
	g.logger.Info("[insights] Generating intelligence for session %s", sessionID)

	prices := data.PriceSamples
	if len(prices) == 0 {
		// Keep downstream arithmetic defined with a single neutral sample.
		prices = []int{40000}
	}

	ctx := &ruleContext{
		data:        data,
		avgPrice:    meanPrice(prices),
		medianPrice: medianPrice(prices),
		luxuryPct:   segmentShare(prices, luxuryFloor, maxInt),
		midRangePct: segmentShare(prices, midRangeFloor, midRangeCeil),
		leader:      marketLeader(data.DealerData),
		now:         now,
	}

	var insights []models.Insight
	for _, rule := range insightRules {
		if rule.when(ctx) {
			insights = append(insights, rule.build(ctx))
		}
	}

	var kept []models.Insight
	for _, ins := range insights {
		if ins.Confidence >= g.cfg.ConfidenceThreshold {
			kept = append(kept, ins)
		}
	}
	if len(kept) > g.cfg.MaxInsightsPerReport {
		kept = kept[:g.cfg.MaxInsightsPerReport]
	}

	mode := "LIVE"
	if data.Simulated() {
		mode = "SIMULATION"
	}

	session := &models.IntelligenceSession{
		SessionID:     sessionID,
		Timestamp:     now,
		Mode:          mode,
		TotalListings: data.TotalListings,
		Aggregates: models.Aggregates{
			AveragePrice:    ctx.avgPrice,
			MedianPrice:     ctx.medianPrice,
			LuxuryPct:       ctx.luxuryPct,
			SampleSize:      len(prices),
			DominantSegment: dominantSegment(ctx.luxuryPct),
		},
		TopDealers: topDealers(data.DealerData, 5),
		Insights:   kept,
		Summary:    summarize(kept),
	}

	g.logger.Info("[insights] Generated %d insights (%.0f%% avg confidence)",
		session.Summary.InsightsGenerated, session.Summary.ConfidenceAverage*100)
	return session
}

const maxInt = int(^uint(0) >> 1)

// medianPrice returns the element at index n/2 of the ascending sort: the
// lower middle on even lengths.
func medianPrice(prices []int) int {
	sorted := append([]int(nil), prices...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

// segmentShare is the percentage of samples p with lo <= p < hi.
func segmentShare(prices []int, lo, hi int) float64 {
	count := 0
	for _, p := range prices {
		if p >= lo && p < hi {
			count++
		}
	}
	return float64(count) / float64(len(prices)) * 100
}

// marketLeader picks the single dealer with the largest listing count,
// earliest extraction order winning ties. Nil when no dealers were tracked.
func marketLeader(dealers []models.DealerRecord) *models.DealerRecord {
	var leader *models.DealerRecord
	for i := range dealers {
		if leader == nil || dealers[i].ListingCount > leader.ListingCount {
			leader = &dealers[i]
		}
	}
	return leader
}

// topDealers sorts descending by listing count (stable, so extraction order
// breaks ties) and keeps at most n records.
func topDealers(dealers []models.DealerRecord, n int) []models.DealerRecord {
	sorted := append([]models.DealerRecord(nil), dealers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ListingCount > sorted[j].ListingCount
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func dominantSegment(luxuryPct float64) string {
	if luxuryPct > 30 {
		return "luxury"
	}
	return "premium"
}

func summarize(insights []models.Insight) models.SessionSummary {
	s := models.SessionSummary{InsightsGenerated: len(insights)}
	if len(insights) == 0 {
		return s
	}

	var sum float64
	for _, ins := range insights {
		sum += ins.Confidence
		if ins.Impact == models.ImpactHigh {
			s.HighImpactCount++
		}
		if ins.Recommendation != "" {
			s.RecommendationCount++
		}
	}
	s.ConfidenceAverage = sum / float64(len(insights))
	return s
}
