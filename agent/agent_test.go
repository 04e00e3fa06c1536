package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plusauto-intel/config"
	"plusauto-intel/models"
	"plusauto-intel/utils"
)

type fakeExtractor struct {
	data *models.RawExtraction
	err  error
}

func (f *fakeExtractor) Extract(context.Context) (*models.RawExtraction, error) {
	return f.data, f.err
}

func (f *fakeExtractor) Simulation() *models.RawExtraction {
	return &models.RawExtraction{
		TotalListings: 29099,
		PriceSamples:  []int{20590, 28490, 31313, 42868, 46325, 59900, 88217, 118936, 121745, 141840},
		DealerData: []models.DealerRecord{
			{Name: "autorulateleasing", ListingCount: 537},
		},
		MarketIndicators: map[string]string{"simulation_mode": "true"},
	}
}

type fakeStore struct {
	saved *models.IntelligenceSession
	err   error
}

func (f *fakeStore) Save(s *models.IntelligenceSession) error {
	f.saved = s
	return f.err
}

func (f *fakeStore) Get(string) (*models.IntelligenceSession, error) { return nil, nil }
func (f *fakeStore) Close() error                                    { return nil }

type fakeRenderer struct{ err error }

func (f *fakeRenderer) Render(s *models.IntelligenceSession) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("<html>" + s.SessionID + "</html>"), nil
}

type fakeDeliverer struct {
	delivered bool
	err       error
}

func (f *fakeDeliverer) Deliver([]byte, *models.IntelligenceSession) error {
	f.delivered = f.err == nil
	return f.err
}

func goodBatch() *models.RawExtraction {
	prices := make([]int, 15)
	for i := range prices {
		prices[i] = 20000 + i*1000
	}
	return &models.RawExtraction{
		TotalListings:    25000,
		PriceSamples:     prices,
		DealerData:       []models.DealerRecord{{Name: "autodel", ListingCount: 310}},
		MarketIndicators: map[string]string{},
	}
}

func testAgent(t *testing.T, ex Extractor, store *fakeStore, rend *fakeRenderer, del *fakeDeliverer) *Agent {
	t.Helper()
	cfg := &config.Config{
		ConfidenceThreshold:  0.80,
		MaxInsightsPerReport: 12,
		ReportsDir:           t.TempDir(),
		Recipients:           []string{"ops@example.test"},
	}
	a := New(cfg, utils.NewLogger(), ex, store, rend, del)
	a.now = func() time.Time { return time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC) }
	return a
}

func TestRunSessionSuccess(t *testing.T) {
	store := &fakeStore{}
	del := &fakeDeliverer{}
	a := testAgent(t, &fakeExtractor{data: goodBatch()}, store, &fakeRenderer{}, del)

	result := a.RunSession(context.Background())

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.SessionID != "intel_20250106_103000" {
		t.Errorf("SessionID: got %q", result.SessionID)
	}
	if store.saved == nil || store.saved.SessionID != result.SessionID {
		t.Error("session was not persisted")
	}
	if store.saved.Mode != "LIVE" {
		t.Errorf("Mode: got %q, want LIVE", store.saved.Mode)
	}
	if !del.delivered || !result.EmailSent {
		t.Error("report was not delivered")
	}

	wantPath := filepath.Join(a.cfg.ReportsDir, "intelligence_report_intel_20250106_103000.html")
	if result.ReportPath != wantPath {
		t.Errorf("ReportPath: got %q, want %q", result.ReportPath, wantPath)
	}
	body, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("report file: %v", err)
	}
	if !strings.Contains(string(body), result.SessionID) {
		t.Error("report file does not contain the session id")
	}
}

func TestRunSessionValidationFailureIsTerminal(t *testing.T) {
	store := &fakeStore{}
	del := &fakeDeliverer{}
	batch := &models.RawExtraction{TotalListings: 0, MarketIndicators: map[string]string{}}
	a := testAgent(t, &fakeExtractor{data: batch}, store, &fakeRenderer{}, del)

	result := a.RunSession(context.Background())

	if result.Success {
		t.Fatal("expected failure on invalid data")
	}
	if result.Error != "data validation failed" {
		t.Errorf("Error: got %q", result.Error)
	}
	if result.Validation == nil || result.Validation.IsValid {
		t.Error("expected the validation verdict in the result")
	}
	if store.saved != nil {
		t.Error("invalid session must not be persisted")
	}
	if del.delivered {
		t.Error("invalid session must not be delivered")
	}
}

func TestRunSessionExtractionFallsBackToSimulation(t *testing.T) {
	store := &fakeStore{}
	ex := &fakeExtractor{err: errors.New("connection refused")}
	a := testAgent(t, ex, store, &fakeRenderer{}, &fakeDeliverer{})

	result := a.RunSession(context.Background())

	if !result.Success {
		t.Fatalf("expected success on simulation fallback, got %+v", result)
	}
	if store.saved == nil || store.saved.Mode != "SIMULATION" {
		t.Fatalf("expected SIMULATION session, got %+v", store.saved)
	}
}

func TestRunSessionPersistFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	del := &fakeDeliverer{}
	a := testAgent(t, &fakeExtractor{data: goodBatch()}, store, &fakeRenderer{}, del)

	result := a.RunSession(context.Background())

	if !result.Success {
		t.Fatal("persistence failure must not fail the session")
	}
	if result.ReportPath == "" || !del.delivered {
		t.Error("report must still be written and delivered")
	}
}

func TestRunSessionRenderFailureSkipsDelivery(t *testing.T) {
	del := &fakeDeliverer{}
	a := testAgent(t, &fakeExtractor{data: goodBatch()}, &fakeStore{}, &fakeRenderer{err: errors.New("bad template")}, del)

	result := a.RunSession(context.Background())

	if !result.Success {
		t.Fatal("render failure must not fail the session")
	}
	if result.ReportPath != "" {
		t.Errorf("ReportPath: got %q, want empty", result.ReportPath)
	}
	if del.delivered || result.EmailSent {
		t.Error("nothing to deliver without a rendered report")
	}
}

func TestRunSessionDeliveryFailure(t *testing.T) {
	del := &fakeDeliverer{err: errors.New("smtp auth")}
	a := testAgent(t, &fakeExtractor{data: goodBatch()}, &fakeStore{}, &fakeRenderer{}, del)

	result := a.RunSession(context.Background())

	if !result.Success {
		t.Fatal("delivery failure must not fail the session")
	}
	if result.EmailSent {
		t.Error("EmailSent must be false after a delivery error")
	}
	if result.ReportPath == "" {
		t.Error("the report must still be saved locally")
	}
}
