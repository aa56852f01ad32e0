package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trufnetwork/rootcred/app/display"
	"github.com/trufnetwork/rootcred/internal/verifier"
)

type respVerify struct {
	States []verifier.State
}

func (r *respVerify) MarshalJSON() ([]byte, error) {
	if len(r.States) == 1 {
		return json.Marshal(r.States[0])
	}
	return json.Marshal(r.States)
}

func (r *respVerify) MarshalText() ([]byte, error) {
	var b strings.Builder
	for i, state := range r.States {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", display.Label("UID:"), state.Input)

		switch state.Phase {
		case verifier.PhaseNotFound:
			fmt.Fprintln(&b, display.Warning(state.Error))
		case verifier.PhaseError:
			fmt.Fprintln(&b, display.Failure(state.Error))
		case verifier.PhaseFound:
			res := state.Result
			fmt.Fprintf(&b, "%s %s\n", display.Label("Status:"), display.StatusColor(string(res.Status)))
			fmt.Fprintf(&b, "%s %s\n", display.Label("Attester:"), res.Attester)
			fmt.Fprintf(&b, "%s %s\n\n", display.Label("Issued:"), res.Issued)

			table, err := display.Table([]string{"Field", "Value"}, [][]string{
				{"Recipient", res.Credential.Recipient},
				{"Student Name", res.Credential.StudentName},
				{"Degree Name", res.Credential.DegreeName},
				{"Institution", res.Credential.InstitutionName},
				{"Date Awarded", res.DateAwarded},
			})
			if err != nil {
				return nil, err
			}
			b.WriteString(table)
		}
	}
	return []byte(b.String()), nil
}

func newVerifyCmd(env *environment) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "verify <uid> [uid...]",
		Short: "Look up credential attestations by UID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.setup(); err != nil {
				return display.PrintErr(cmd, err)
			}
			defer env.close()

			newView := func() *verifier.View {
				return verifier.New(env.client,
					verifier.WithLogger(env.logger),
					verifier.WithMetrics(env.metrics))
			}

			if len(args) == 1 {
				view := newView()
				if err := view.Verify(cmd.Context(), args[0]); err != nil {
					return display.PrintErr(cmd, errors.New(view.State().Error))
				}
				return display.PrintCmd(cmd, &respVerify{States: []verifier.State{view.State()}})
			}

			states := verifier.VerifyMany(cmd.Context(), args, concurrency, newView)
			if err := display.PrintCmd(cmd, &respVerify{States: states}); err != nil {
				return err
			}
			failed := 0
			for _, s := range states {
				if s.Phase == verifier.PhaseError {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d lookups failed", failed, len(states))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", verifier.DefaultConcurrency, "maximum concurrent lookups")
	return cmd
}
