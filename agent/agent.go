// Package agent sequences one intelligence session:
// extract -> validate -> generate -> persist -> render -> deliver.
// Validation failure is the only hard stop; everything after it degrades
// gracefully so a broken mailbox or database never costs the report.
package agent

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"plusauto-intel/config"
	"plusauto-intel/models"
	"plusauto-intel/services"
	"plusauto-intel/storage"
	"plusauto-intel/utils"
)

// Extractor produces one extraction batch, or the documented fallback
// dataset when live extraction is impossible.
type Extractor interface {
	Extract(ctx context.Context) (*models.RawExtraction, error)
	Simulation() *models.RawExtraction
}

// Renderer turns a session into a report document.
type Renderer interface {
	Render(session *models.IntelligenceSession) ([]byte, error)
}

// Deliverer sends a rendered report to its recipients.
type Deliverer interface {
	Deliver(document []byte, session *models.IntelligenceSession) error
}

// Agent orchestrates intelligence sessions.
type Agent struct {
	cfg       *config.Config
	logger    *utils.Logger
	extractor Extractor
	validator *services.Validator
	generator *services.Generator
	store     storage.SessionStore
	renderer  Renderer
	deliverer Deliverer

	now func() time.Time
}

// New wires an Agent from its collaborators.
func New(cfg *config.Config, logger *utils.Logger, extractor Extractor,
	store storage.SessionStore, renderer Renderer, deliverer Deliverer) *Agent {
	return &Agent{
		cfg:       cfg,
		logger:    logger,
		extractor: extractor,
		validator: services.NewValidator(logger),
		generator: services.NewGenerator(cfg, logger),
		store:     store,
		renderer:  renderer,
		deliverer: deliverer,
		now:       time.Now,
	}
}

// RunSession executes one full session and returns its structured result.
// It never panics or propagates errors past its own boundary.
func (a *Agent) RunSession(ctx context.Context) *models.RunResult {
	start := a.now()
	a.logger.Info("[agent] Starting intelligence session...")

	data, err := a.extractor.Extract(ctx)
	if err != nil {
		// Degraded path: always produce something. The simulation dataset
		// is clearly marked so the report says so.
		a.logger.Warn("[agent] Extraction failed (%v) - falling back to simulation data", err)
		data = a.extractor.Simulation()
	}

	validation := a.validator.Validate(data)
	if !validation.IsValid {
		a.logger.Error("[agent] Data validation failed - cannot proceed with analysis")
		return &models.RunResult{
			Success:       false,
			Error:         "data validation failed",
			Validation:    validation,
			ExecutionTime: a.now().Sub(start),
		}
	}
	a.logger.Info("[agent] Data validation passed - proceeding with analysis")

	session := a.generator.Generate(data, a.now())

	if err := a.store.Save(session); err != nil {
		a.logger.Error("[agent] Persistence failed: %v", err)
	} else {
		a.logger.Info("[agent] Session saved: %s", session.SessionID)
	}

	var reportPath string
	document, err := a.renderer.Render(session)
	if err != nil {
		a.logger.Error("[agent] Report rendering failed: %v", err)
	} else {
		reportPath = a.saveReport(session.SessionID, document)
	}

	emailSent := false
	if document != nil {
		if err := a.deliverer.Deliver(document, session); err != nil {
			a.logger.Error("[agent] Report delivery failed: %v", err)
		} else {
			emailSent = len(a.cfg.Recipients) > 0
		}
	}

	result := &models.RunResult{
		Success:            true,
		SessionID:          session.SessionID,
		ExecutionTime:      a.now().Sub(start),
		InsightsGenerated:  session.Summary.InsightsGenerated,
		ConfidenceAverage:  session.Summary.ConfidenceAverage,
		HighImpactInsights: session.Summary.HighImpactCount,
		ReportPath:         reportPath,
		EmailSent:          emailSent,
	}

	a.logger.Info("[agent] Session complete - %d insights, %.0f%% avg confidence, %.1fs",
		result.InsightsGenerated, result.ConfidenceAverage*100, result.ExecutionTime.Seconds())
	return result
}

// saveReport writes the rendered document under the reports directory and
// returns its path, or "" when the write failed.
func (a *Agent) saveReport(sessionID string, document []byte) string {
	if err := os.MkdirAll(a.cfg.ReportsDir, 0755); err != nil {
		a.logger.Error("[agent] Create reports dir: %v", err)
		return ""
	}

	path := filepath.Join(a.cfg.ReportsDir, "intelligence_report_"+sessionID+".html")
	if err := os.WriteFile(path, document, 0644); err != nil {
		a.logger.Error("[agent] Save report: %v", err)
		return ""
	}

	a.logger.Info("[agent] Report saved: %s", path)
	return path
}
