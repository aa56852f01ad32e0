package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/trufnetwork/rootcred/app/display"
	"github.com/trufnetwork/rootcred/internal/config"
	"github.com/trufnetwork/rootcred/internal/schema"
)

type respSchema struct {
	Definition    string         `json:"definition"`
	Fields        []schema.Field `json:"fields"`
	ComputedUID   string         `json:"computed_uid"`
	ConfiguredUID string         `json:"configured_uid,omitempty"`
}

func (r *respSchema) MarshalJSON() ([]byte, error) {
	type plain respSchema
	return json.Marshal((*plain)(r))
}

func (r *respSchema) MarshalText() ([]byte, error) {
	rows := make([][]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		rows = append(rows, []string{f.Name, f.Type})
	}
	table, err := display.Table([]string{"Field", "Type"}, rows)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", display.Label("Schema:"), r.Definition)
	b.WriteString(table)
	fmt.Fprintf(&b, "\n%s %s\n", display.Label("UID (no resolver, revocable):"), r.ComputedUID)
	switch {
	case r.ConfiguredUID == "":
		fmt.Fprintln(&b, display.Warning(config.EnvSchemaUID+" is not set"))
	case !strings.EqualFold(r.ConfiguredUID, r.ComputedUID):
		fmt.Fprintf(&b, "%s %s\n", display.Warning("Configured UID differs:"), r.ConfiguredUID)
	}
	return []byte(b.String()), nil
}

func newSchemaCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the credential schema and its UID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.setup(); err != nil {
				return display.PrintErr(cmd, err)
			}
			defer env.close()

			return display.PrintCmd(cmd, &respSchema{
				Definition:    schema.Credentials.String(),
				Fields:        schema.Credentials.Fields(),
				ComputedUID:   schema.Credentials.UID(common.Address{}, true).Hex(),
				ConfiguredUID: env.cfg.SchemaUID,
			})
		},
	}
}

type respRegistered struct {
	UID string `json:"uid"`
}

func (r *respRegistered) MarshalJSON() ([]byte, error) {
	type plain respRegistered
	return json.Marshal((*plain)(r))
}

func (r *respRegistered) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%s\n%s %s\nSet %s=%s to issue credentials under it.\n",
		display.Success("Schema registered."),
		display.Label("UID:"), r.UID,
		config.EnvSchemaUID, r.UID)), nil
}

func newRegisterSchemaCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "register-schema",
		Short: "Register the credential schema with the schema registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.setup(); err != nil {
				return display.PrintErr(cmd, err)
			}
			defer env.close()

			uid, err := env.client.RegisterSchema(cmd.Context())
			if err != nil {
				return display.PrintErr(cmd, err)
			}
			return display.PrintCmd(cmd, &respRegistered{UID: uid.Hex()})
		},
	}
}
