package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import employees or skills from a CSV file",
}

var importEmployeesCmd = &cobra.Command{
	Use:   "employees FILE",
	Short: "Import employees (name, employeeNumber, department, dateHired, shift)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0], func(a *app) importFunc { return a.imports.ImportEmployees })
	},
}

var importSkillsCmd = &cobra.Command{
	Use:   "skills FILE",
	Short: "Import skills (code, name, description, project, validityMonths, recertReminderDays)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0], func(a *app) importFunc { return a.imports.ImportSkills })
	},
}

var failOnRejected bool

func init() {
	importCmd.PersistentFlags().BoolVar(&failOnRejected, "strict", false, "Exit non-zero when any row is rejected")
	importCmd.AddCommand(importEmployeesCmd, importSkillsCmd)
	rootCmd.AddCommand(importCmd)
}

type importFunc func(ctx context.Context, r io.Reader, actor *models.Actor) (*dto.BulkResult, error)

func runImport(cmd *cobra.Command, path string, pick func(*app) importFunc) error {
	ctx := cmd.Context()
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := resolveActor(ctx, a.users, actorUsername)
	if err != nil {
		return err
	}
	result, err := pick(a)(ctx, file, actor)
	if err != nil {
		return err
	}
	if err := writeBulkResult(cmd.OutOrStdout(), result, jsonOutput); err != nil {
		return err
	}
	if failOnRejected && result.FailureCount > 0 {
		return fmt.Errorf("%d of %d rows rejected", result.FailureCount, result.TotalRows)
	}
	return nil
}
