package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trufnetwork/rootcred/app/display"
	"github.com/trufnetwork/rootcred/internal/config"
	"github.com/trufnetwork/rootcred/internal/wallet"
)

type respWallet struct {
	State      wallet.State     `json:"state"`
	Connectors []string         `json:"connectors"`
	Readiness  config.Readiness `json:"readiness"`
}

func (r *respWallet) MarshalJSON() ([]byte, error) {
	type plain respWallet
	return json.Marshal((*plain)(r))
}

func (r *respWallet) MarshalText() ([]byte, error) {
	var b strings.Builder
	if len(r.Connectors) == 0 {
		fmt.Fprintln(&b, display.Warning(wallet.NoWalletMessage))
	} else {
		fmt.Fprintf(&b, "%s %s\n", display.Label("Connectors:"), strings.Join(r.Connectors, ", "))
	}

	switch r.State.Status {
	case wallet.StatusConnected:
		fmt.Fprintf(&b, "%s %s via %s\n", display.Success("Connected"), r.State.Display, r.State.Connector)
		fmt.Fprintf(&b, "%s %s\n", display.Label("Address:"), r.State.Address)
	default:
		fmt.Fprintln(&b, display.Warning(r.State.Status.String()))
	}
	if r.State.Error != "" {
		fmt.Fprintln(&b, display.Failure(r.State.Error))
	}
	if len(r.Readiness.Missing) > 0 {
		fmt.Fprintf(&b, "%s %s\n", display.Label("Not configured:"), strings.Join(r.Readiness.Missing, ", "))
	}
	return []byte(b.String()), nil
}

func newWalletCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Connect the configured wallet and show its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.setup(); err != nil {
				return display.PrintErr(cmd, err)
			}
			defer env.close()

			connectErr := env.session.Connect(cmd.Context())

			resp := &respWallet{State: env.session.State(), Readiness: env.cfg.Readiness()}
			for _, c := range env.session.Connectors() {
				status := "not ready"
				if c.Ready() {
					status = "ready"
				}
				resp.Connectors = append(resp.Connectors, fmt.Sprintf("%s (%s)", c.Name(), status))
			}
			if err := display.PrintCmd(cmd, resp); err != nil {
				return err
			}
			return connectErr
		},
	}
}
