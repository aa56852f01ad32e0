// Package app assembles the rootcred command line.
package app

import (
	"github.com/spf13/cobra"

	"github.com/trufnetwork/rootcred/app/display"
	"github.com/trufnetwork/rootcred/cmd/version"
	"github.com/trufnetwork/rootcred/internal/eas"
)

// RootCmd creates the rootcred root command wired to a live RPC endpoint.
func RootCmd() *cobra.Command {
	return newRootCmd(eas.DialEthClient)
}

func newRootCmd(dial eas.DialFunc) *cobra.Command {
	env := &environment{dial: dial}

	cmd := &cobra.Command{
		Use:   "rootcred",
		Short: "Issue and verify academic credentials as attestations on Rootstock",
		Long: `rootcred issues academic credentials as Ethereum Attestation Service
attestations on Rootstock Testnet and verifies them by UID.

Configuration comes from an optional YAML file (--config) and ROOTCRED_*
environment variables, which take precedence.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&env.configPath, "config", "", "path to a YAML configuration file")
	display.BindOutputFlag(cmd)

	cmd.AddCommand(
		newIssueCmd(env),
		newVerifyCmd(env),
		newRegisterSchemaCmd(env),
		newSchemaCmd(env),
		newWalletCmd(env),
		newServeCmd(env),
		version.NewVersionCmd(),
	)
	return cmd
}
