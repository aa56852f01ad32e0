package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/trufnetwork/rootcred/app/display"
	"github.com/trufnetwork/rootcred/internal/config"
	"github.com/trufnetwork/rootcred/internal/schema"
)

// Report describes the binary and the credential schema it was built for.
// Two binaries issue interchangeable credentials only when their schema UIDs
// match.
type Report struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`

	ChainName  string `json:"chain_name"`
	ChainID    int64  `json:"chain_id"`
	Schema     string `json:"schema"`
	SchemaUID  string `json:"schema_uid"`
	Revocable  bool   `json:"revocable"`
	FieldCount int    `json:"field_count"`
}

// NewReport collects the build facts of the running binary. The schema UID
// is the one registered without a resolver.
func NewReport() *Report {
	return &Report{
		Version:    getVersion(),
		GitCommit:  getCommit(),
		BuildTime:  getBuildTimeDisplay(),
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		ChainName:  config.DefaultChainName,
		ChainID:    config.DefaultChainID,
		Schema:     schema.CredentialDefinition,
		SchemaUID:  schema.Credentials.UID(common.Address{}, true).Hex(),
		Revocable:  true,
		FieldCount: len(schema.Credentials.Fields()),
	}
}

func (r *Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal((*plain)(r))
}

func (r *Report) MarshalText() ([]byte, error) {
	commit := r.GitCommit
	if commit == "" {
		commit = "unknown"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "rootcred %s (%s)\n", display.Success(r.Version), commit)
	fmt.Fprintf(&b, "%s %s\n", display.Label("Built:"), r.BuildTime)
	fmt.Fprintf(&b, "%s %s %s\n", display.Label("Runtime:"), r.GoVersion, r.Platform)
	fmt.Fprintf(&b, "%s %s (chain %d)\n", display.Label("Network:"), r.ChainName, r.ChainID)

	table, err := display.Table([]string{"Schema", "Value"}, [][]string{
		{"Definition", r.Schema},
		{"UID", r.SchemaUID},
		{"Revocable", fmt.Sprintf("%t", r.Revocable)},
		{"Fields", fmt.Sprintf("%d", r.FieldCount)},
	})
	if err != nil {
		return nil, fmt.Errorf("render schema table: %w", err)
	}
	b.WriteString(table)
	return []byte(b.String()), nil
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the rootcred version and credential schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return display.PrintCmd(cmd, NewReport())
		},
	}
}
