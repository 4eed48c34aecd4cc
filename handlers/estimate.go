package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"roadsafetyestimator/config"
	"roadsafetyestimator/services"
	"roadsafetyestimator/templates"
)

const maxUploadBytes = 32 << 20

// fieldLabels names request fields the way the form shows them.
var fieldLabels = map[string]string{
	"FileName":      "File",
	"ReferenceYear": "Price year",
	"Recipient":     "Email",
	"Options":       "Report options",
}

// HandleEstimate runs the pipeline on an uploaded audit report and renders
// the results.
func HandleEstimate(est *services.Estimator, report config.ReportConfig, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid upload")
		}
		file, header, err := e.Request.FormFile("audit_file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please choose a file to upload")
		}
		defer file.Close()

		req := parseEstimateForm(e.Request, report)
		req.FileName = header.Filename
		req.Content = file

		res, err := est.Run(e.Request.Context(), req)
		if err != nil {
			return estimateError(e, logger, err)
		}

		data := buildResultsData(res, est.ReportData(res), est.Matcher().Threshold())
		SetToast(e, "success", fmt.Sprintf("Estimate generated for %d intervention(s)", data.TotalItems))

		var component templ.Component
		if isHTMX(e.Request) {
			component = templates.ResultsContent(data)
		} else {
			component = templates.ResultsPage(data)
		}
		return component.Render(e.Request.Context(), e.Response)
	}
}

func parseEstimateForm(r *http.Request, report config.ReportConfig) services.EstimateRequest {
	year, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("year")))

	region := strings.TrimSpace(r.FormValue("location"))
	if region == "" {
		region = services.DefaultRegion
	}

	opts := report.ReportDefaults(services.ReportOptions{
		Title:            strings.TrimSpace(r.FormValue("title")),
		ProjectName:      strings.TrimSpace(r.FormValue("project_name")),
		Consultant:       strings.TrimSpace(r.FormValue("consultant")),
		IncludeCitations: checked(r, "include_citations"),
		IncludeCharts:    checked(r, "include_charts"),
	})

	return services.EstimateRequest{
		Region:        region,
		ReferenceYear: year,
		Options:       opts,
		Recipient:     strings.TrimSpace(r.FormValue("recipient")),
		ExportExcel:   checked(r, "export_excel"),
	}
}

func checked(r *http.Request, name string) bool {
	switch strings.ToLower(r.FormValue(name)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func estimateError(e *core.RequestEvent, logger *zap.Logger, err error) error {
	var verrs validation.Errors
	var extErr *services.ExtractionError

	switch {
	case errors.Is(err, services.ErrUnsupportedFormat):
		return ErrorToast(e, http.StatusBadRequest,
			fmt.Sprintf("Unsupported file format. Please upload one of: %s", supportedFormatList()))
	case errors.As(err, &verrs):
		return ErrorToast(e, http.StatusBadRequest, validationMessage(verrs))
	case errors.As(err, &extErr):
		logger.Warn("extraction failed", zap.Error(err))
		return ErrorToast(e, http.StatusUnprocessableEntity,
			"Could not read any text from the uploaded document. Try another format or an unprotected copy.")
	default:
		logger.Error("estimate failed", zap.Error(err))
		return ErrorToast(e, http.StatusInternalServerError, "Failed to generate the estimate")
	}
}

func supportedFormatList() string {
	var out []string
	for _, f := range services.SupportedFormats {
		out = append(out, "."+string(f))
	}
	return strings.Join(out, ", ")
}

// validationMessage renders ozzo errors as one sentence per field, in a
// stable order.
func validationMessage(verrs validation.Errors) string {
	keys := make([]string, 0, len(verrs))
	for k := range verrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		label, ok := fieldLabels[k]
		if !ok {
			label = k
		}
		parts = append(parts, fmt.Sprintf("%s: %v", label, verrs[k]))
	}
	return strings.Join(parts, "; ")
}

func buildResultsData(res *services.EstimateResult, rd services.ReportData, threshold int) templates.ResultsData {
	data := templates.ResultsData{
		RunID:       res.RunID,
		FileName:    res.FileName,
		Strategy:    res.Strategy,
		Region:      res.Region,
		KnownRegion: res.KnownRegion,
		Year:        res.Year,
		TotalItems:  res.Summary.TotalItems,
		Subtotal:    services.FormatMoney(res.Summary.TotalCost),
		GSTLabel:    rd.GSTLabel(),
		GST:         services.FormatMoney(res.Summary.TotalGST),
		GrandTotal:  services.FormatMoney(res.Summary.TotalWithGST),
		Average:     services.FormatMoney(res.Summary.AverageCost),
	}

	for i, it := range res.Items {
		data.Items = append(data.Items, templates.ResultItem{
			No:           i + 1,
			Type:         it.Type,
			Description:  it.Description,
			Location:     it.Location,
			Chainage:     it.Chainage,
			Quantity:     strconv.FormatFloat(it.Quantity, 'f', -1, 64),
			Unit:         it.Unit,
			RateUnit:     it.RateUnit(),
			UnitMismatch: it.UnitMismatch(),
			IRCCode:      it.IRCCode,
			Category:     it.Category,
			Score:        it.Score,
			Rate:         services.FormatMoney(it.AdjustedRate),
			TotalCost:    services.FormatMoney(it.TotalCost),
			TotalWithGST: services.FormatMoney(it.TotalWithGST),
		})
	}

	for _, d := range res.Match.Dropped {
		data.Dropped = append(data.Dropped, templates.DroppedItem{
			Type:        d.Candidate.Type,
			Description: d.Candidate.Description,
			Reason:      d.Message(threshold),
		})
	}

	for _, c := range res.Summary.Categories {
		data.Categories = append(data.Categories, templates.CategoryRow{
			Category:     c.Category,
			Count:        c.Count,
			TotalWithGST: services.FormatMoney(c.TotalWithGST),
		})
	}

	if res.ReportPath != "" {
		data.ReportURL = "/reports/" + filepath.Base(res.ReportPath)
	}
	if res.ExcelPath != "" {
		data.ExcelURL = "/reports/" + filepath.Base(res.ExcelPath)
	}
	if res.Delivery != nil {
		data.Delivery = &templates.DeliveryView{OK: res.Delivery.OK, Message: res.Delivery.Message}
	}
	return data
}
