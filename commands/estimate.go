package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"roadsafetyestimator/config"
	"roadsafetyestimator/services"
)

type estimateFlags struct {
	location    string
	year        int
	out         string
	email       string
	title       string
	project     string
	consultant  string
	excel       bool
	noCitations bool
	noCharts    bool
}

// NewEstimateCommand returns the `estimate <file>` command, which runs the
// same pipeline as the web form and prints a summary.
func NewEstimateCommand(est *services.Estimator, report config.ReportConfig) *cobra.Command {
	var f estimateFlags

	cmd := &cobra.Command{
		Use:   "estimate <file>",
		Short: "Estimate intervention costs for a road safety audit report",
		Long: "Reads a .pdf, .docx or .txt audit report, prices the detected interventions " +
			"against the reference catalog and writes a PDF report.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, est, report, f, args[0])
		},
	}

	cmd.Flags().StringVarP(&f.location, "location", "l", services.DefaultRegion, "region used for the location factor")
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "reference price year (default: current year)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "directory for generated reports (default: report.output_dir)")
	cmd.Flags().StringVar(&f.email, "email", "", "send the PDF report to this address")
	cmd.Flags().StringVar(&f.title, "title", "", "report title")
	cmd.Flags().StringVar(&f.project, "project", "", "project name")
	cmd.Flags().StringVar(&f.consultant, "consultant", "", "consultant name")
	cmd.Flags().BoolVar(&f.excel, "excel", false, "also write an Excel workbook")
	cmd.Flags().BoolVar(&f.noCitations, "no-citations", false, "omit the IRC references section")
	cmd.Flags().BoolVar(&f.noCharts, "no-charts", false, "omit the category chart")

	return cmd
}

func runEstimate(cmd *cobra.Command, est *services.Estimator, report config.ReportConfig, f estimateFlags, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audit report: %w", err)
	}
	defer file.Close()

	if f.out != "" {
		est = est.WithOutputDir(f.out)
	}
	year := f.year
	if year == 0 {
		year = est.Now().Year()
	}

	res, err := est.Run(cmd.Context(), services.EstimateRequest{
		FileName:      filepath.Base(path),
		Content:       file,
		Region:        f.location,
		ReferenceYear: year,
		Options: report.ReportDefaults(services.ReportOptions{
			Title:            f.title,
			ProjectName:      f.project,
			Consultant:       f.consultant,
			IncludeCitations: !f.noCitations,
			IncludeCharts:    !f.noCharts,
		}),
		Recipient:   f.email,
		ExportExcel: f.excel,
	})
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFormat) {
			return fmt.Errorf("%w (supported: .pdf, .docx, .txt)", err)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Catalog:   %s (%d entries)\n", est.Catalog().Source(), est.Catalog().Len())
	printSummary(cmd.OutOrStdout(), res, est.Matcher().Threshold())
	if res.Delivery != nil && !res.Delivery.OK {
		fmt.Fprintf(cmd.ErrOrStderr(), "email not sent: %s\n", res.Delivery.Message)
	}
	return nil
}

func printSummary(w io.Writer, res *services.EstimateResult, threshold int) {
	region := res.Region
	if !res.KnownRegion {
		region += " (unknown, factor 1.00)"
	}
	fmt.Fprintf(w, "File:      %s (%s)\n", res.FileName, res.Strategy)
	fmt.Fprintf(w, "Location:  %s\n", region)
	fmt.Fprintf(w, "Year:      %d\n", res.Year)
	fmt.Fprintf(w, "Detected:  %d, priced %d, dropped %d\n",
		len(res.Candidates), len(res.Items), len(res.Match.Dropped))

	for i, it := range res.Items {
		fmt.Fprintf(w, "%3d. %-22s %8s %-4s @ %s/%s = %s\n", i+1, it.Type,
			strconv.FormatFloat(it.Quantity, 'f', -1, 64), it.Unit,
			services.FormatRs(it.AdjustedRate), it.RateUnit(), services.FormatRs(it.TotalWithGST))
		if it.UnitMismatch() {
			fmt.Fprintf(w, "     quantity is in %s but the rate is per %s\n", it.Unit, it.RateUnit())
		}
	}
	for _, d := range res.Match.Dropped {
		fmt.Fprintf(w, "  - %s not priced: %s\n", d.Candidate.Type, d.Message(threshold))
	}

	fmt.Fprintf(w, "Subtotal:    %s\n", services.FormatRs(res.Summary.TotalCost))
	fmt.Fprintf(w, "GST:         %s\n", services.FormatRs(res.Summary.TotalGST))
	fmt.Fprintf(w, "Grand total: %s\n", services.FormatRs(res.Summary.TotalWithGST))
	fmt.Fprintf(w, "Report:      %s\n", res.ReportPath)
	if res.ExcelPath != "" {
		fmt.Fprintf(w, "Workbook:    %s\n", res.ExcelPath)
	}
	if res.Delivery != nil && res.Delivery.OK {
		fmt.Fprintf(w, "Emailed:     %s\n", res.Delivery.Message)
	}
}
