package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
)

const reportDate = "2006-01-02"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeBulkResult(w io.Writer, result *dto.BulkResult, asJSON bool) error {
	if asJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "%s import %s: %d of %d rows imported\n", result.Type, result.Status, result.SuccessCount, result.TotalRows)
	if result.LogError != "" {
		fmt.Fprintf(w, "warning: upload log not saved: %s\n", result.LogError)
	}
	if result.FailureCount == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tIDENTIFIER\tMESSAGE")
	for _, row := range result.Rows {
		if row.Status != dto.OutcomeFailed {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", row.Index, row.Identifier, row.Message)
	}
	return tw.Flush()
}

func writeComplianceReport(w io.Writer, report *dto.ComplianceReport, asJSON bool) error {
	if asJSON {
		return writeJSON(w, report)
	}
	s := report.Summary
	fmt.Fprintf(w, "tracked %d  current %d  due soon %d  overdue %d\n", s.Tracked, s.Current, s.DueSoon, s.Overdue)
	if len(report.Items) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tEXPIRES\tEMPLOYEE\tNAME\tSKILL\tLEVEL\tREVISION")
	for _, item := range report.Items {
		revision := "current"
		if item.RevisionMismatch {
			revision = "outdated"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\tL%d\t%s\n",
			item.Status, item.ExpirationDate.Format(reportDate), item.EmployeeNumber, item.EmployeeName,
			item.SkillCode, item.Level, revision)
	}
	return tw.Flush()
}
