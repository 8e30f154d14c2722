package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/timetable"
)

var importTimetableCmd = &cobra.Command{
	Use:   "import-timetable",
	Short: "Replace the weekly template set from a YAML timetable document",
	Long:  "Parse a YAML timetable document and atomically replace the stored weekly course templates with its entries. The previous set is kept untouched when any entry is invalid.",
	RunE:  runImportTimetable,
}

var (
	timetablePath string
	operatorID    string
	operatorName  string
)

func init() {
	rootCmd.AddCommand(importTimetableCmd)

	importTimetableCmd.Flags().StringVar(&timetablePath, "file", "", "Path to the YAML timetable document (required)")
	importTimetableCmd.Flags().StringVar(&operatorID, "operator-id", "cli-admin", "Administrator identity recorded for the import")
	importTimetableCmd.Flags().StringVar(&operatorName, "operator-name", "CLI Administrator", "Display name recorded for the import")
	_ = importTimetableCmd.MarkFlagRequired("file")
}

// operatorActor is the administrator identity CLI commands act as.
func operatorActor() persistence.Actor {
	return persistence.Actor{
		Kind:        persistence.ActorAdmin,
		ID:          operatorID,
		DisplayName: operatorName,
	}
}

func runImportTimetable(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	body, err := os.ReadFile(timetablePath)
	if err != nil {
		return fmt.Errorf("read timetable: %w", err)
	}

	document, err := timetable.Parse(body)
	if err != nil {
		return fmt.Errorf("parse timetable: %w", err)
	}

	inputs, err := document.ToTemplates()
	if err != nil {
		return fmt.Errorf("convert timetable: %w", err)
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

	templates, err := svc.templates.ReplaceAll(context.Background(), operatorActor(), inputs)
	if err != nil {
		return fmt.Errorf("replace templates: %w", err)
	}

	logger.Info().
		Str("file", timetablePath).
		Str("semester", document.Semester).
		Int("template_count", len(templates)).
		Msg("timetable imported")
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d templates from %s\n", len(templates), timetablePath)
	return nil
}
