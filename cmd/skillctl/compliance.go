package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
)

var (
	reportDepartment string
	reportStatus     string
)

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "List qualifications that are due for recertification or overdue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := complianceFilter(reportDepartment, reportStatus)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.compliance.ActionNeeded(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return writeComplianceReport(cmd.OutOrStdout(), report, jsonOutput)
	},
}

func init() {
	complianceCmd.Flags().StringVar(&reportDepartment, "department", "", "Only records of this department")
	complianceCmd.Flags().StringVar(&reportStatus, "status", "", "DUE_SOON or OVERDUE")
	rootCmd.AddCommand(complianceCmd)
}

func complianceFilter(department, status string) (service.ComplianceFilter, error) {
	filter := service.ComplianceFilter{Department: strings.TrimSpace(department)}
	if strings.EqualFold(filter.Department, "all") {
		filter.Department = ""
	}
	switch s := models.RecertStatus(strings.ToUpper(strings.TrimSpace(status))); s {
	case "":
	case models.RecertDueSoon, models.RecertOverdue:
		filter.Status = s
	default:
		return filter, fmt.Errorf("invalid --status %q: want DUE_SOON or OVERDUE", status)
	}
	return filter, nil
}
