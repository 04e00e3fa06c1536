// Package report turns an intelligence session into an HTML document and
// delivers it by email. Rendering is a pure function of the session payload.
package report

import (
	"bytes"
	"fmt"
	"html/template"

	"plusauto-intel/models"
	"plusauto-intel/utils"
)

var impactColors = map[models.ImpactLevel]string{
	models.ImpactHigh:   "#dc3545",
	models.ImpactMedium: "#fd7e14",
	models.ImpactLow:    "#28a745",
}

// Renderer renders the executive HTML report.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the report template once.
func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"formatInt": utils.FormatInt,
		"eur":       utils.FormatEUR,
		"pct":       func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
		"pct1":      func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
		"share":     func(f float64) string { return fmt.Sprintf("%.2f%%", f) },
		"barWidth":  func(conf float64) template.CSS { return template.CSS(fmt.Sprintf("width: %.0f%%", conf*100)) },
		"color": func(impact models.ImpactLevel) template.CSS {
			c, ok := impactColors[impact]
			if !ok {
				c = "#6c757d"
			}
			return template.CSS(c)
		},
		"title": utils.TitleFromSlug,
	}
	return &Renderer{
		tmpl: template.Must(template.New("report").Funcs(funcs).Parse(reportTemplate)),
	}
}

// dealerRow is a dealer with its precomputed market share.
type dealerRow struct {
	Rank   int
	Dealer models.DealerRecord
	Share  float64
}

type reportData struct {
	Session *models.IntelligenceSession
	Dealers []dealerRow
	Date    string
}

// Render produces the report document for one session.
func (r *Renderer) Render(session *models.IntelligenceSession) ([]byte, error) {
	data := reportData{
		Session: session,
		Date:    session.Timestamp.Format("January 2, 2006"),
	}
	for i, d := range session.TopDealers {
		data.Dealers = append(data.Dealers, dealerRow{
			Rank:   i + 1,
			Dealer: d,
			Share:  d.MarketShare(session.TotalListings),
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("report: render %s: %w", session.SessionID, err)
	}
	return buf.Bytes(), nil
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Plus-Auto.ro Intelligence Report</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background: #667eea; padding: 20px; }
.container { max-width: 1100px; margin: 0 auto; background: white; border-radius: 16px; overflow: hidden; }
.header { background: #1e3c72; color: white; padding: 36px; text-align: center; }
.header h1 { font-size: 2.4em; margin-bottom: 8px; }
.header .subtitle { font-size: 1.2em; opacity: 0.9; }
.overview { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 20px; padding: 32px; background: #f8f9fa; }
.metric-card { background: white; padding: 24px; border-radius: 12px; text-align: center; }
.metric-card h3 { color: #6c757d; font-size: 0.9em; margin-bottom: 10px; }
.metric-card .value { font-size: 2.2em; font-weight: 800; color: #2c3e50; }
.metric-card .subvalue { font-size: 0.85em; color: #6c757d; }
.content { padding: 32px; }
.section { margin: 30px 0; }
.section h2 { font-size: 1.6em; color: #2c3e50; margin-bottom: 18px; }
.insight-card { background: white; padding: 20px; border-radius: 12px; margin-bottom: 18px; box-shadow: 0 4px 14px rgba(0,0,0,0.08); }
.insight-card h4 { color: #2c3e50; margin-bottom: 10px; }
.confidence-bar { width: 80px; height: 6px; background: #e9ecef; border-radius: 3px; display: inline-block; vertical-align: middle; }
.confidence-fill { height: 100%; border-radius: 3px; }
.recommendation { background: #f8f9fa; padding: 12px; border-radius: 8px; border-left: 4px solid #28a745; margin-top: 12px; font-size: 0.95em; }
.badge { display: inline-block; padding: 4px 10px; border-radius: 12px; font-size: 0.8em; font-weight: 600; color: white; margin-right: 8px; margin-top: 10px; }
.data-table { width: 100%; border-collapse: collapse; }
.data-table th { background: #1e3c72; color: white; padding: 14px; text-align: left; }
.data-table td { padding: 12px 14px; border-bottom: 1px solid #f1f3f5; }
.summary { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 16px; background: #f8f9fa; padding: 24px; border-radius: 12px; text-align: center; }
.summary .number { font-size: 1.8em; font-weight: 800; color: #667eea; }
.summary .label { font-size: 0.85em; color: #6c757d; }
.footer { background: #2c3e50; color: white; padding: 24px; text-align: center; font-size: 0.85em; opacity: 0.9; }
</style>
</head>
<body>
<div class="container">
	<div class="header">
		<h1>Intelligence Report</h1>
		<div class="subtitle">Plus-Auto.ro Marketplace Analysis</div>
	</div>

	<div class="overview">
		<div class="metric-card">
			<h3>Total Marketplace</h3>
			<div class="value">{{formatInt .Session.TotalListings}}</div>
			<div class="subvalue">Active Listings</div>
		</div>
		<div class="metric-card">
			<h3>Average Price</h3>
			<div class="value">{{eur .Session.Aggregates.AveragePrice}}</div>
			<div class="subvalue">Market Average</div>
		</div>
		<div class="metric-card">
			<h3>Luxury Share</h3>
			<div class="value">{{pct1 .Session.Aggregates.LuxuryPct}}</div>
			<div class="subvalue">Premium Market</div>
		</div>
		<div class="metric-card">
			<h3>Insights</h3>
			<div class="value">{{.Session.Summary.InsightsGenerated}}</div>
			<div class="subvalue">{{pct .Session.Summary.ConfidenceAverage}} Avg Confidence</div>
		</div>
	</div>

	<div class="content">
		<div class="section">
			<h2>Market Intelligence Insights</h2>
			{{range .Session.Insights}}
			<div class="insight-card" style="border-left: 5px solid {{color .Impact}};">
				<h4>{{.Title}}</h4>
				<div>
					<span class="confidence-bar"><span class="confidence-fill" style="{{barWidth .Confidence}}; background: {{color .Impact}};"></span></span>
					<span>{{pct .Confidence}} confidence</span>
				</div>
				<p style="margin-top: 10px; color: #495057;">{{.Description}}</p>
				{{if .Recommendation}}<div class="recommendation"><strong>Recommendation:</strong> {{.Recommendation}}</div>{{end}}
				<span class="badge" style="background: #6c757d;">{{.Kind}}</span>
				<span class="badge" style="background: {{color .Impact}};">{{.Impact}} impact</span>
			</div>
			{{end}}
		</div>

		<div class="section">
			<h2>Top Dealer Performance</h2>
			<table class="data-table">
				<thead>
					<tr><th>Rank</th><th>Dealer</th><th>Active Listings</th><th>Market Share</th></tr>
				</thead>
				<tbody>
					{{range .Dealers}}
					<tr>
						<td>{{.Rank}}</td>
						<td style="font-weight: 600;">{{title .Dealer.Name}}</td>
						<td>{{formatInt .Dealer.ListingCount}}</td>
						<td>{{share .Share}}</td>
					</tr>
					{{end}}
				</tbody>
			</table>
		</div>

		<div class="section">
			<h2>Intelligence Summary</h2>
			<div class="summary">
				<div><div class="number">{{.Session.Summary.HighImpactCount}}</div><div class="label">High Impact Insights</div></div>
				<div><div class="number">{{.Session.Summary.RecommendationCount}}</div><div class="label">Actionable Recommendations</div></div>
				<div><div class="number">{{formatInt .Session.Aggregates.SampleSize}}</div><div class="label">Data Points Analyzed</div></div>
				<div><div class="number">{{pct .Session.Summary.ConfidenceAverage}}</div><div class="label">Average Confidence</div></div>
			</div>
		</div>
	</div>

	<div class="footer">
		Generated {{.Date}} · Session {{.Session.SessionID}} · Mode {{.Session.Mode}}
	</div>
</div>
</body>
</html>
`
