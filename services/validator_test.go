package services

import (
	"strings"
	"testing"

	"plusauto-intel/models"
	"plusauto-intel/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func repeatPrices(price, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func someDealers() []models.DealerRecord {
	return []models.DealerRecord{
		{Name: "autodel", ListingCount: 310},
		{Name: "wow-auto-rulate", ListingCount: 194},
	}
}

func TestValidatePerfectBatch(t *testing.T) {
	v := NewValidator(newTestLogger())
	result := v.Validate(&models.RawExtraction{
		TotalListings: 25000,
		PriceSamples:  repeatPrices(20000, 15),
		DealerData:    someDealers(),
	})

	if result.QualityScore != 100 {
		t.Errorf("QualityScore: got %d, want 100", result.QualityScore)
	}
	if !result.IsValid {
		t.Error("expected batch to be valid")
	}
	if len(result.Warnings) != 0 || len(result.Errors) != 0 {
		t.Errorf("expected no warnings/errors, got %v / %v", result.Warnings, result.Errors)
	}
}

func TestValidateZeroListingsIsBlocking(t *testing.T) {
	v := NewValidator(newTestLogger())
	result := v.Validate(&models.RawExtraction{
		TotalListings: 0,
		PriceSamples:  repeatPrices(20000, 15),
		DealerData:    someDealers(),
	})

	if result.IsValid {
		t.Error("zero listings must always be invalid")
	}
	if result.QualityScore != 50 {
		t.Errorf("QualityScore: got %d, want 50", result.QualityScore)
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "no ads") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a \"no ads\" error, got %v", result.Errors)
	}
}

func TestValidateDeductions(t *testing.T) {
	tests := []struct {
		name      string
		data      models.RawExtraction
		wantScore int
		wantValid bool
	}{
		{
			name: "low listing count",
			data: models.RawExtraction{
				TotalListings: 15000,
				PriceSamples:  repeatPrices(20000, 15),
				DealerData:    someDealers(),
			},
			wantScore: 80,
			wantValid: true,
		},
		{
			name: "very high listing count",
			data: models.RawExtraction{
				TotalListings: 45000,
				PriceSamples:  repeatPrices(20000, 15),
				DealerData:    someDealers(),
			},
			wantScore: 80,
			wantValid: true,
		},
		{
			name: "no price samples",
			data: models.RawExtraction{
				TotalListings: 25000,
				DealerData:    someDealers(),
			},
			wantScore: 85,
			wantValid: true,
		},
		{
			name: "few price samples",
			data: models.RawExtraction{
				TotalListings: 25000,
				PriceSamples:  repeatPrices(20000, 5),
				DealerData:    someDealers(),
			},
			wantScore: 90,
			wantValid: true,
		},
		{
			name: "suspiciously low average price",
			data: models.RawExtraction{
				TotalListings: 25000,
				PriceSamples:  repeatPrices(999, 10),
				DealerData:    someDealers(),
			},
			wantScore: 85,
			wantValid: true,
		},
		{
			name: "suspiciously high average price",
			data: models.RawExtraction{
				TotalListings: 25000,
				PriceSamples:  repeatPrices(150000, 10),
				DealerData:    someDealers(),
			},
			wantScore: 85,
			wantValid: true,
		},
		{
			name: "no dealer data",
			data: models.RawExtraction{
				TotalListings: 25000,
				PriceSamples:  repeatPrices(20000, 15),
			},
			wantScore: 90,
			wantValid: true,
		},
		{
			name:      "everything missing",
			data:      models.RawExtraction{},
			wantScore: 25,
			wantValid: false,
		},
	}

	v := NewValidator(newTestLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(&tt.data)
			if result.QualityScore != tt.wantScore {
				t.Errorf("QualityScore: got %d, want %d", result.QualityScore, tt.wantScore)
			}
			if result.IsValid != tt.wantValid {
				t.Errorf("IsValid: got %v, want %v", result.IsValid, tt.wantValid)
			}
			if result.QualityScore < 0 {
				t.Errorf("QualityScore must never be negative, got %d", result.QualityScore)
			}
		})
	}
}

func TestValidateQualityGate(t *testing.T) {
	v := NewValidator(newTestLogger())

	// Every non-blocking deduction at once: 20 + 15 + 10 = 45 -> score 55,
	// still above the gate.
	ok := v.Validate(&models.RawExtraction{TotalListings: 15000, PriceSamples: repeatPrices(999, 10)})
	if ok.QualityScore != 55 || !ok.IsValid {
		t.Errorf("score 55 should still be valid, got %d valid=%v", ok.QualityScore, ok.IsValid)
	}
	if len(ok.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %v", ok.Warnings)
	}

	// Below the gate the quality error joins the blocking one.
	bad := v.Validate(&models.RawExtraction{})
	found := false
	for _, e := range bad.Errors {
		if strings.Contains(e, "quality too poor") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a quality-gate error, got %v", bad.Errors)
	}
}
