package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

var reportContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// sanitizeReportName accepts only a bare file name with a report extension.
func sanitizeReportName(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\:`) || strings.HasPrefix(name, ".") {
		return "", false
	}
	if _, ok := reportContentTypes[strings.ToLower(filepath.Ext(name))]; !ok {
		return "", false
	}
	return name, true
}

// HandleReportDownload serves a generated PDF or Excel file from outputDir.
func HandleReportDownload(outputDir string, logger *zap.Logger) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		name, ok := sanitizeReportName(e.Request.PathValue("name"))
		if !ok {
			return e.String(http.StatusBadRequest, "Invalid report name")
		}

		data, err := os.ReadFile(filepath.Join(outputDir, name))
		if errors.Is(err, os.ErrNotExist) {
			return e.String(http.StatusNotFound, "Report not found")
		}
		if err != nil {
			logger.Error("report download failed", zap.String("name", name), zap.Error(err))
			return e.String(http.StatusInternalServerError, "Failed to read report")
		}

		e.Response.Header().Set("Content-Type", reportContentTypes[strings.ToLower(filepath.Ext(name))])
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(data)
		return err
	}
}
