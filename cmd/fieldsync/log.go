package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/internal/infrastructure/providers"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record a visit",
}

var logAntenatalCmd = &cobra.Command{
	Use:   "antenatal",
	Short: "Record an antenatal visit",
	RunE: func(cmd *cobra.Command, args []string) error {
		systolic, _ := cmd.Flags().GetString("systolic")
		diastolic, _ := cmd.Flags().GetString("diastolic")
		weight, _ := cmd.Flags().GetString("weight")
		fundal, _ := cmd.Flags().GetString("fundal-height")
		results, _ := cmd.Flags().GetString("test-results")
		recordSet, _ := cmd.Flags().GetString("record-set")

		return createEntry(cmd, domain.Draft{
			Payload: domain.Antenatal{
				BloodPressure: domain.BloodPressure{Systolic: systolic, Diastolic: diastolic},
				Weight:        weight,
				FundalHeight:  fundal,
				TestResults:   results,
			},
			RecordSetID: recordSet,
		})
	},
}

var logImmunizationCmd = &cobra.Command{
	Use:   "immunization",
	Short: "Record an immunization",
	RunE: func(cmd *cobra.Command, args []string) error {
		vaccine, _ := cmd.Flags().GetString("vaccine")
		dose, _ := cmd.Flags().GetString("dose")
		first, _ := cmd.Flags().GetString("first-name")
		last, _ := cmd.Flags().GetString("last-name")
		recordSet, _ := cmd.Flags().GetString("record-set")

		payload := domain.Immunization{
			VaccineType:      vaccine,
			DoseNumber:       dose,
			PatientFirstName: first,
			PatientLastName:  last,
		}
		if cmd.Flags().Changed("notes") {
			notes, _ := cmd.Flags().GetString("notes")
			payload.Notes = &notes
		}

		return createEntry(cmd, domain.Draft{Payload: payload, RecordSetID: recordSet})
	},
}

func createEntry(cmd *cobra.Command, draft domain.Draft) error {
	return withAgent(cmd, func(ctx context.Context, agent *providers.Agent) error {
		entry, err := agent.Sync.CreateEntry(ctx, agent.Session, draft)
		if entry.ID == "" {
			return err
		}

		printEntry(cmd, entry)
		if err != nil {
			var rc domain.RemoteCommitError
			if errors.As(err, &rc) {
				fmt.Fprintln(cmd.OutOrStdout(), "sync failed, entry kept for resync:", err)
				return nil
			}
			return err
		}
		return nil
	})
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logAntenatalCmd, logImmunizationCmd)

	logAntenatalCmd.Flags().String("systolic", "", "Systolic blood pressure (required)")
	logAntenatalCmd.Flags().String("diastolic", "", "Diastolic blood pressure (required)")
	logAntenatalCmd.Flags().String("weight", "", "Weight in kg (required)")
	logAntenatalCmd.Flags().String("fundal-height", "", "Fundal height in cm (required)")
	logAntenatalCmd.Flags().String("test-results", "", "Test results (required)")

	logImmunizationCmd.Flags().String("vaccine", "", "Vaccine type (required)")
	logImmunizationCmd.Flags().String("dose", "", "Dose number (required)")
	logImmunizationCmd.Flags().String("notes", "", "Notes")
	logImmunizationCmd.Flags().String("first-name", "", "Patient first name")
	logImmunizationCmd.Flags().String("last-name", "", "Patient last name")

	for _, c := range []*cobra.Command{logAntenatalCmd, logImmunizationCmd} {
		c.Flags().String("record-set", "", "Patient record set to add the record to")
	}
}
