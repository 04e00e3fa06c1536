package services

import (
	"fmt"

	"plusauto-intel/models"
	"plusauto-intel/utils"
)

// Minimum quality score for a batch to be usable for analysis.
const minQualityScore = 50

// Validator scores an extraction batch for plausibility before any insight
// generation happens. Scoring is pure; the logger only mirrors the outcome
// to the operator log.
type Validator struct {
	logger *utils.Logger
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *utils.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate applies every plausibility check independently; deductions are
// additive. Warnings and errors come back in encounter order and are meant
// for the operator log, not end users.
func (v *Validator) Validate(data *models.RawExtraction) *models.ValidationResult {
	v.logger.Info("[validate] Validating scraped marketplace data...")

	result := &models.ValidationResult{
		IsValid:      true,
		QualityScore: 100,
	}

	// Total listing count
	switch {
	case data.TotalListings == 0:
		result.Errors = append(result.Errors, "no ads found - scraping completely failed")
		result.IsValid = false
		result.QualityScore -= 50
	case data.TotalListings < 20000:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("low ad count (%s) - possible scraping issue", utils.FormatInt(data.TotalListings)))
		result.QualityScore -= 20
	case data.TotalListings > 40000:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("very high ad count (%s) - possible scraping error", utils.FormatInt(data.TotalListings)))
		result.QualityScore -= 20
	default:
		v.logger.Info("[validate] Total listings OK: %s ads", utils.FormatInt(data.TotalListings))
	}

	// Price samples
	switch n := len(data.PriceSamples); {
	case n == 0:
		result.Warnings = append(result.Warnings, "no price samples collected")
		result.QualityScore -= 15
	case n < 10:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("few price samples (%d) - limited data", n))
		result.QualityScore -= 10
	default:
		avg := meanPrice(data.PriceSamples)
		switch {
		case avg < 1000:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("suspiciously low average price: %s", utils.FormatEUR(avg)))
			result.QualityScore -= 15
		case avg > 100000:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("suspiciously high average price: %s", utils.FormatEUR(avg)))
			result.QualityScore -= 15
		default:
			v.logger.Info("[validate] Price samples OK: %s average", utils.FormatEUR(avg))
		}
	}

	// Dealer data
	if len(data.DealerData) == 0 {
		result.Warnings = append(result.Warnings, "no dealer data collected")
		result.QualityScore -= 10
	} else {
		v.logger.Info("[validate] Dealer data OK: %d dealers", len(data.DealerData))
	}

	// The score never goes negative.
	if result.QualityScore < 0 {
		result.QualityScore = 0
	}

	if result.QualityScore < minQualityScore {
		result.IsValid = false
		result.Errors = append(result.Errors, "data quality too poor for reliable analysis")
	}

	for _, e := range result.Errors {
		v.logger.Error("[validate] %s", e)
	}
	for _, w := range result.Warnings {
		v.logger.Warn("[validate] %s", w)
	}
	v.logger.Info("[validate] Data quality score: %d/100", result.QualityScore)

	return result
}

func meanPrice(prices []int) float64 {
	if len(prices) == 0 {
		return 0
	}
	sum := 0
	for _, p := range prices {
		sum += p
	}
	return float64(sum) / float64(len(prices))
}
