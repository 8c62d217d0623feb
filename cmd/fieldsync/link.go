package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/totegamma/carelog/internal/infrastructure/providers"
	"github.com/totegamma/carelog/internal/usecase"
)

var linkCmd = &cobra.Command{
	Use:   "link [record-set-id]",
	Short: "Link this identity to a patient record set",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fresh, _ := cmd.Flags().GetBool("new")

		var recordSet string
		switch {
		case fresh:
			recordSet = usecase.NewRecordSet()
		case len(args) == 1:
			recordSet = args[0]
		default:
			return fmt.Errorf("give a record set id or --new")
		}

		return withAgent(cmd, func(ctx context.Context, agent *providers.Agent) error {
			linkage, err := agent.Linkage.Link(ctx, agent.Session, recordSet)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "linked", linkage.PatientAddress, "to", linkage.LinkedUUID)
			return nil
		})
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show the health records of the linked record set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, agent *providers.Agent) error {
			records, err := agent.Linkage.ViewRecords(ctx, agent.Session)
			for _, e := range records {
				printEntry(cmd, e)
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(linkCmd, recordsCmd)
	linkCmd.Flags().Bool("new", false, "Create a fresh record set")
}
