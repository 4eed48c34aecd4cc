package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EstimateRequest is one upload plus the pricing and report options.
type EstimateRequest struct {
	FileName      string
	Content       io.Reader
	Region        string
	ReferenceYear int
	Options       ReportOptions
	Recipient     string
	ExportExcel   bool
}

// Validate checks the request against the tunables' year window.
func (r EstimateRequest) Validate(t Tunables, now time.Time) error {
	minYear, maxYear := t.YearBounds(now)
	return validation.ValidateStruct(&r,
		validation.Field(&r.FileName, validation.Required.Error("please choose a file to upload")),
		validation.Field(&r.ReferenceYear,
			validation.Required,
			validation.Min(minYear).Error(fmt.Sprintf("must be between %d and %d", minYear, maxYear)),
			validation.Max(maxYear).Error(fmt.Sprintf("must be between %d and %d", minYear, maxYear)),
		),
		validation.Field(&r.Recipient, is.EmailFormat.Error("must be a valid email address")),
		validation.Field(&r.Options),
	)
}

// Analysis is the in-memory outcome of the pipeline, before any file is
// written.
type Analysis struct {
	Candidates  []CandidateIntervention
	Match       MatchReport
	Items       []PricedItem
	Summary     PriceSummary
	Region      string
	KnownRegion bool
	Year        int
}

// EstimateResult is everything a caller needs to show or deliver one run.
type EstimateResult struct {
	RunID    string
	FileName string
	Format   Format
	Strategy string
	Analysis
	Options    ReportOptions
	ReportPath string
	ExcelPath  string
	Delivery   *DeliveryResult
}

// Estimator wires the pipeline stages together. The catalog and tunables
// are shared read-only; each Run works on its own slices.
type Estimator struct {
	catalog    *Catalog
	tunables   Tunables
	extractor  *TextExtractor
	detector   *Detector
	matcher    *Matcher
	calculator *Calculator
	mailer     Mailer
	outputDir  string
	logger     *zap.Logger
	now        func() time.Time
}

// NewEstimator builds an estimator over a loaded catalog. mailer may be nil,
// in which case delivery requests are answered with a not-configured result.
func NewEstimator(catalog *Catalog, t Tunables, mailer Mailer, outputDir string, logger *zap.Logger) *Estimator {
	return &Estimator{
		catalog:    catalog,
		tunables:   t,
		extractor:  NewTextExtractor(logger),
		detector:   NewDetector(t),
		matcher:    NewMatcher(catalog, t),
		calculator: NewCalculator(t),
		mailer:     mailer,
		outputDir:  outputDir,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock returns a copy of e that uses now for timestamps and the
// current year.
func (e *Estimator) WithClock(now func() time.Time) *Estimator {
	cp := *e
	cp.now = now
	cp.calculator = e.calculator.WithClock(now)
	return &cp
}

// WithOutputDir returns a copy of e that writes reports into dir.
func (e *Estimator) WithOutputDir(dir string) *Estimator {
	cp := *e
	cp.outputDir = dir
	return &cp
}

// Catalog returns the shared reference catalog.
func (e *Estimator) Catalog() *Catalog { return e.catalog }

// Tunables returns the thresholds and rates the pipeline runs with.
func (e *Estimator) Tunables() Tunables { return e.tunables }

// Matcher returns the catalog matcher, mostly for its threshold.
func (e *Estimator) Matcher() *Matcher { return e.matcher }

// OutputDir is where reports and workbooks are written.
func (e *Estimator) OutputDir() string { return e.outputDir }

// Now reads the estimator's clock.
func (e *Estimator) Now() time.Time { return e.now() }

// MailConfigured reports whether delivery can actually send.
func (e *Estimator) MailConfigured() bool { return e.mailer != nil && e.mailer.Configured() }

// ReportData rebuilds the report input of a finished run.
func (e *Estimator) ReportData(res *EstimateResult) ReportData {
	return NewReportData(res.Options, res.Items, e.calculator.GSTRate())
}

// Analyze runs detection, matching and pricing over already extracted text.
func (e *Estimator) Analyze(text, region string, year int) Analysis {
	candidates := e.detector.Detect(text)
	report := e.matcher.Match(candidates)
	items := e.calculator.Price(report.Matched, region, year)
	_, known := LocationFactor(region)
	return Analysis{
		Candidates:  candidates,
		Match:       report,
		Items:       items,
		Summary:     Summarize(items),
		Region:      region,
		KnownRegion: known,
		Year:        year,
	}
}

// Run executes the full pipeline for one upload: validate, extract,
// analyze, write the report and optionally deliver it. Delivery failures
// are reported in the result, never as an error.
func (e *Estimator) Run(ctx context.Context, req EstimateRequest) (*EstimateResult, error) {
	start := e.now()
	if err := req.Validate(e.tunables, start); err != nil {
		EstimateRuns.WithLabelValues("invalid").Inc()
		return nil, err
	}

	runID := uuid.NewString()
	log := e.logger.With(zap.String("run_id", runID), zap.String("file", req.FileName))

	ext, err := e.extractor.Extract(req.FileName, req.Content)
	if err != nil {
		EstimateRuns.WithLabelValues("extraction_failed").Inc()
		log.Warn("extraction failed", zap.Error(err))
		return nil, err
	}
	ExtractionStrategyUsed.WithLabelValues(string(ext.Format), ext.Strategy).Inc()
	log.Info("text extracted",
		zap.String("format", string(ext.Format)),
		zap.String("strategy", ext.Strategy),
		zap.Int("chars", len(ext.Text)),
	)

	region := strings.TrimSpace(req.Region)
	analysis := e.Analyze(ext.Text, region, req.ReferenceYear)
	if !analysis.KnownRegion {
		log.Warn("unknown region, using neutral location factor", zap.String("region", region))
	}

	CandidatesMatched.Add(float64(len(analysis.Match.Matched)))
	for _, d := range analysis.Match.Dropped {
		CandidatesDropped.WithLabelValues(string(d.Reason)).Inc()
		log.Debug("candidate dropped",
			zap.String("type", d.Candidate.Type),
			zap.String("closest", d.BestType),
			zap.Int("score", d.BestScore),
		)
	}
	log.Info("candidates matched",
		zap.Int("candidates", len(analysis.Candidates)),
		zap.Int("kept", len(analysis.Match.Matched)),
		zap.Int("dropped", len(analysis.Match.Dropped)),
		zap.String("total_with_gst", analysis.Summary.TotalWithGST.StringFixed(2)),
	)

	opts := req.Options.WithDefaults(start)
	data := NewReportData(opts, analysis.Items, e.calculator.GSTRate())

	result := &EstimateResult{
		RunID:    runID,
		FileName: req.FileName,
		Format:   ext.Format,
		Strategy: ext.Strategy,
		Analysis: analysis,
		Options:  opts,
	}

	result.ReportPath, err = WriteReportPDF(e.outputDir, start, data)
	if err != nil {
		EstimateRuns.WithLabelValues("report_failed").Inc()
		log.Error("report generation failed", zap.Error(err))
		return nil, fmt.Errorf("generate report: %w", err)
	}
	log.Info("report written", zap.String("path", result.ReportPath))

	if req.ExportExcel {
		result.ExcelPath, err = WriteEstimateExcel(e.outputDir, start, data)
		if err != nil {
			log.Warn("excel export failed", zap.Error(err))
		}
	}

	if req.Recipient != "" {
		dr := e.deliver(ctx, req.Recipient, result.ReportPath, opts, analysis.Summary)
		result.Delivery = &dr
		log.Info("delivery attempted", zap.Bool("ok", dr.OK), zap.String("message", dr.Message))
	}

	EstimateRuns.WithLabelValues("ok").Inc()
	EstimateDuration.Observe(e.now().Sub(start).Seconds())
	return result, nil
}

func (e *Estimator) deliver(ctx context.Context, to, reportPath string, opts ReportOptions, summary PriceSummary) DeliveryResult {
	if e.mailer == nil {
		DeliveriesTotal.WithLabelValues("not_configured").Inc()
		return DeliveryResult{OK: false, Message: MsgNotConfigured}
	}
	subject, body := EstimateEmail(opts, summary)
	dr := e.mailer.Send(ctx, Delivery{
		To:             to,
		Subject:        subject,
		Body:           body,
		AttachmentPath: reportPath,
	})
	if dr.OK {
		DeliveriesTotal.WithLabelValues("sent").Inc()
	} else {
		DeliveriesTotal.WithLabelValues("failed").Inc()
	}
	return dr
}
