package models

import "time"

// InsightKind is the closed set of insight categories the rule engine emits.
type InsightKind string

const (
	KindMarketTrend             InsightKind = "market_trend"
	KindPricingStrategy         InsightKind = "pricing_strategy"
	KindCompetitiveIntelligence InsightKind = "competitive_intelligence"
	KindMarketOpportunity       InsightKind = "market_opportunity"
	KindPrediction              InsightKind = "prediction"
)

// ImpactLevel grades how much an insight should influence decisions.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// DealerRecord is one tracked dealer as observed on the marketplace.
// Dealers whose profile page returned 404 are omitted entirely, never
// recorded with a zero count.
type DealerRecord struct {
	Name         string    `json:"name"`
	ListingCount int       `json:"listing_count"`
	SourceURL    string    `json:"source_url"`
	ObservedAt   time.Time `json:"observed_at"`
}

// MarketShare returns the dealer's share of the whole marketplace in percent.
func (d DealerRecord) MarketShare(totalListings int) float64 {
	if totalListings <= 0 {
		return 0
	}
	return float64(d.ListingCount) / float64(totalListings) * 100
}

// RawExtraction is the untyped-text-turned-numbers output of one extraction
// pass. It is immutable once handed to the validator.
type RawExtraction struct {
	TotalListings    int               `json:"total_listings"`
	PriceSamples     []int             `json:"price_samples"`
	DealerData       []DealerRecord    `json:"dealer_data"`
	MarketIndicators map[string]string `json:"market_indicators"`
}

// Simulated reports whether this batch came from the fallback dataset
// rather than a live scrape.
func (r *RawExtraction) Simulated() bool {
	return r.MarketIndicators["simulation_mode"] == "true"
}

// ValidationResult scores a RawExtraction for plausibility. It gates whether
// a session proceeds and is never persisted on its own.
type ValidationResult struct {
	IsValid      bool     `json:"is_valid"`
	Warnings     []string `json:"warnings"`
	Errors       []string `json:"errors"`
	QualityScore int      `json:"quality_score"`
}

// Insight is a single confidence-scored observation about the market.
type Insight struct {
	Kind           InsightKind `json:"type"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Confidence     float64     `json:"confidence"`
	Impact         ImpactLevel `json:"impact"`
	Recommendation string      `json:"recommendation,omitempty"`
}

// Aggregates holds the pricing statistics computed from the price samples.
type Aggregates struct {
	AveragePrice    float64 `json:"average"`
	MedianPrice     int     `json:"median"`
	LuxuryPct       float64 `json:"luxury_percentage"`
	SampleSize      int     `json:"sample_size"`
	DominantSegment string  `json:"dominant_segment"`
}

// SessionSummary is the roll-up of the kept insights.
type SessionSummary struct {
	InsightsGenerated   int     `json:"insights_generated"`
	ConfidenceAverage   float64 `json:"confidence_average"`
	HighImpactCount     int     `json:"high_impact_insights"`
	RecommendationCount int     `json:"recommendations_count"`
}

// IntelligenceSession is one complete run's output: aggregates, the top
// dealers, and the filtered insight list. Created once, written to the
// record store exactly once, never mutated afterwards.
type IntelligenceSession struct {
	SessionID     string         `json:"session_id"`
	Timestamp     time.Time      `json:"timestamp"`
	Mode          string         `json:"mode"`
	TotalListings int            `json:"total_listings"`
	Aggregates    Aggregates     `json:"aggregates"`
	TopDealers    []DealerRecord `json:"top_dealers"`
	Insights      []Insight      `json:"insights"`
	Summary       SessionSummary `json:"summary"`
}

// RunResult is the orchestrator's structured outcome for one session. Only a
// validation failure marks the run unsuccessful; persistence and delivery
// problems are recorded without failing the run.
type RunResult struct {
	Success            bool
	SessionID          string
	Error              string
	Validation         *ValidationResult
	ExecutionTime      time.Duration
	InsightsGenerated  int
	ConfidenceAverage  float64
	HighImpactInsights int
	ReportPath         string
	EmailSent          bool
}
