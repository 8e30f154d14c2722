package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/campus-scheduler/internal/application"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Expand active templates into dated occurrences for a semester",
	Long:  "Expand every active weekly template into dated occurrences for the given semester, replacing the semester's previous occurrence set in one transaction.",
	RunE:  runMaterialize,
}

var (
	semesterID        string
	semesterStartDate string
	semesterWeeks     int
)

func init() {
	rootCmd.AddCommand(materializeCmd)

	materializeCmd.Flags().StringVar(&semesterID, "semester", "", "Semester identifier, e.g. 2025-spring (required)")
	materializeCmd.Flags().StringVar(&semesterStartDate, "start", "", "First day of the semester, YYYY-MM-DD (required)")
	materializeCmd.Flags().IntVar(&semesterWeeks, "weeks", 15, "Number of weeks to expand")
	materializeCmd.Flags().StringVar(&operatorID, "operator-id", "cli-admin", "Administrator identity recorded for the run")
	materializeCmd.Flags().StringVar(&operatorName, "operator-name", "CLI Administrator", "Display name recorded for the run")
	_ = materializeCmd.MarkFlagRequired("semester")
	_ = materializeCmd.MarkFlagRequired("start")
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	startDate, err := time.Parse("2006-01-02", semesterStartDate)
	if err != nil {
		return fmt.Errorf("parse start date: %w", err)
	}

	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.close(); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to close storage")
		}
	}()

	result, err := svc.materializer.Materialize(context.Background(), application.MaterializeParams{
		Actor:      operatorActor(),
		SemesterID: semesterID,
		StartDate:  startDate,
		Weeks:      semesterWeeks,
	})
	if err != nil {
		return fmt.Errorf("materialize semester: %w", err)
	}

	logger.Info().
		Str("semester_id", result.SemesterID).
		Int("occurrence_count", len(result.Occurrences)).
		Msg("semester materialized")
	fmt.Fprintf(cmd.OutOrStdout(), "materialized %d occurrences for %s\n", len(result.Occurrences), result.SemesterID)
	return nil
}
