package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/internal/infrastructure/providers"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show identity, role, verification and connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, agent *providers.Agent) error {
			out := cmd.OutOrStdout()
			identity := agent.Session.Identity()
			if identity == "" {
				identity = "(none, entries are not signed)"
			}
			fmt.Fprintln(out, "identity:    ", identity)
			fmt.Fprintln(out, "role:        ", agent.Session.Role())
			fmt.Fprintln(out, "connectivity:", agent.Monitor.State())
			fmt.Fprintln(out, "verification:", agent.Gate.State().Describe())
			if auth, ok := agent.Gate.Authorization(); ok {
				fmt.Fprintf(out, "profile:      %s, %s at %s\n", auth.Name, auth.RoleTitle, auth.Facility)
			}
			if err := agent.Gate.Err(); err != nil {
				fmt.Fprintln(out, "last error:  ", err)
			}
			if l := agent.Session.Linkage(); l != nil {
				fmt.Fprintln(out, "linked to:   ", l.LinkedUUID)
			}
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Attest the healthcare worker license and submit the proof",
	RunE: func(cmd *cobra.Command, args []string) error {
		claim, _ := cmd.Flags().GetString("claim")

		return withAgent(cmd, func(ctx context.Context, agent *providers.Agent) error {
			identity := agent.Session.Identity()
			if identity == "" {
				return domain.AuthorizationDeniedError{Reason: "no signed-in identity"}
			}

			var err error
			if agent.Gate.State() == domain.GateError {
				err = agent.Gate.Retry(ctx, identity, domain.RoleClaim(claim))
			} else {
				err = agent.Gate.StartVerification(ctx, identity, domain.RoleClaim(claim))
			}

			var pf domain.ProofFlowError
			if errors.As(err, &pf) {
				return errors.New(pf.UserMessage())
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), agent.Gate.State().Describe())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, verifyCmd)
	verifyCmd.Flags().String("claim", string(domain.ClaimNurseMidwife), "Role to attest: doctor, community_health_practitioner or nurse_midwife")
}
