package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trufnetwork/rootcred/app/display"
	"github.com/trufnetwork/rootcred/internal/issuer"
)

type respIssue struct {
	State issuer.State
}

func (r *respIssue) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.State)
}

func (r *respIssue) MarshalText() ([]byte, error) {
	var b strings.Builder
	fmt.Fprintln(&b, display.Success("Credential issued successfully!"))
	fmt.Fprintf(&b, "%s %s\n", display.Label("UID:"), r.State.UID)
	fmt.Fprintf(&b, "%s %s\n", display.Label("Explorer:"), r.State.ExplorerLink)
	if r.State.TransactionHash != "" {
		fmt.Fprintf(&b, "%s %s\n", display.Label("Transaction Hash:"), r.State.TransactionHash)
	}
	return []byte(b.String()), nil
}

func newIssueCmd(env *environment) *cobra.Command {
	var form issuer.Form

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a credential attestation signed by the configured wallet",
		Example: `  rootcred issue --recipient 0xAbC...123 --student "Ada Lovelace" \
    --degree "B.Sc." --institution "RootCred University" --date 2024-06-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.setup(); err != nil {
				return display.PrintErr(cmd, err)
			}
			defer env.close()

			view := issuer.New(env.client, env.cfg.ExplorerURL,
				issuer.WithLogger(env.logger),
				issuer.WithMetrics(env.metrics))
			view.SetForm(form)

			if err := view.Submit(cmd.Context()); err != nil {
				return display.PrintErr(cmd, errors.New(view.State().Error))
			}
			return display.PrintCmd(cmd, &respIssue{State: view.State()})
		},
	}

	cmd.Flags().StringVar(&form.Recipient, "recipient", "", "recipient wallet address")
	cmd.Flags().StringVar(&form.StudentName, "student", "", "student name")
	cmd.Flags().StringVar(&form.DegreeName, "degree", "", "degree or program name")
	cmd.Flags().StringVar(&form.InstitutionName, "institution", "", "institution name")
	cmd.Flags().StringVar(&form.DateAwarded, "date", "", "award date, YYYY-MM-DD or RFC 3339")
	for _, name := range []string{"recipient", "student", "degree", "institution", "date"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
