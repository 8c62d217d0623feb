package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/internal/infrastructure/providers"
	"github.com/totegamma/carelog/internal/usecase"
)

var listCmd = &cobra.Command{
	Use:       "list [antenatal|immunization]",
	Short:     "Show queued entries, most recent first",
	ValidArgs: []string{"antenatal", "immunization"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, agent *providers.Agent) error {
			for _, key := range queueKeys(args) {
				entries, err := agent.Sync.Entries(ctx, key)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
				}
				for _, e := range entries {
					printEntry(cmd, e)
				}
			}
			return nil
		})
	},
}

var resyncCmd = &cobra.Command{
	Use:       "resync [antenatal|immunization]",
	Short:     "Retry every entry that has not reached the store",
	ValidArgs: []string{"antenatal", "immunization"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, agent *providers.Agent) error {
			var firstErr error
			for _, key := range queueKeys(args) {
				report, err := agent.Sync.Resync(ctx, agent.Session, key)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: attempted %d, synced %d, failed %d, skipped %d\n",
					key, report.Attempted, report.Synced, report.Failed, report.Skipped)
				if err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		})
	},
}

func queueKeys(args []string) []string {
	if len(args) == 0 {
		return []string{domain.QueueKeyAntenatal, domain.QueueKeyImmunization}
	}
	return []string{domain.QueueKeyFor(domain.PayloadKind(args[0]))}
}

func printEntry(cmd *cobra.Command, e domain.Entry) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s  %s  [%s]\n", e.Timestamp, e.Payload.Kind(), e.ID, e.Status)
	fmt.Fprintf(out, "    by %s\n", e.AuthoredBy)
	for _, line := range domain.Describe(e.Payload) {
		fmt.Fprintf(out, "    %s\n", line)
	}
	switch {
	case e.Signed():
		if err := usecase.VerifyEntry(e); err != nil {
			fmt.Fprintf(out, "    signature INVALID: %v\n", err)
		} else {
			fmt.Fprintf(out, "    signature %s...\n", e.Signature[:min(16, len(e.Signature))])
		}
	case e.SigningNote != "":
		fmt.Fprintf(out, "    unsigned (%s)\n", e.SigningNote)
	}
	if e.RecordSetID != "" {
		fmt.Fprintf(out, "    record set %s\n", e.RecordSetID)
	}
	if e.LastError != "" {
		fmt.Fprintf(out, "    last error: %s\n", strings.TrimSpace(e.LastError))
	}
}

func init() {
	rootCmd.AddCommand(listCmd, resyncCmd)
}
