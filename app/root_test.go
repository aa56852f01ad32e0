package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trufnetwork/rootcred/internal/eas"
	"github.com/trufnetwork/rootcred/internal/schema"
)

type dialCounter struct {
	dials int
}

func (d *dialCounter) dial(ctx context.Context, rawURL string) (eas.Backend, error) {
	d.dials++
	return nil, context.Canceled
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rootcred.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, dial eas.DialFunc, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(dial)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	counter := &dialCounter{}
	cfg := writeConfig(t, "schema_uid: \""+schema.Credentials.UID(common.Address{}, true).Hex()+"\"\n")

	out, err := run(t, counter.dial, "schema", "--config", cfg, "-o", "json")
	require.NoError(t, err)

	var resp struct {
		Result respSchema `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, schema.CredentialDefinition, resp.Result.Definition)
	assert.Len(t, resp.Result.Fields, 5)
	assert.Equal(t, resp.Result.ComputedUID, resp.Result.ConfiguredUID)
	assert.Equal(t, 0, counter.dials)
}

func TestIssueRejectsInvalidDateWithoutNetwork(t *testing.T) {
	counter := &dialCounter{}
	cfg := writeConfig(t, strings.Join([]string{
		`eas_contract: "0xc300aeEadd60999933468738c9F5d7e9c0671e1C"`,
		`schema_uid: "0x` + strings.Repeat("11", 32) + `"`,
	}, "\n"))

	_, err := run(t, counter.dial, "issue", "--config", cfg,
		"--recipient", "0xAbC0000000000000000000000000000000000123",
		"--student", "Ada Lovelace",
		"--degree", "B.Sc.",
		"--institution", "RootCred University",
		"--date", "not a date")
	require.EqualError(t, err, "Please provide a valid award date.")
	assert.Equal(t, 0, counter.dials)
}

func TestVerifyRequiresContract(t *testing.T) {
	counter := &dialCounter{}
	cfg := writeConfig(t, "chain_id: 31\n")

	out, err := run(t, counter.dial, "verify", "0x"+strings.Repeat("ab", 32), "--config", cfg, "-o", "json")
	require.EqualError(t, err, "Missing environment variable or configuration value: ROOTCRED_EAS_CONTRACT")
	assert.JSONEq(t, `{"error":"Missing environment variable or configuration value: ROOTCRED_EAS_CONTRACT"}`, out)
	assert.Equal(t, 0, counter.dials)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	cfg := writeConfig(t, "eas_contract: \"not-an-address\"\n")
	_, err := run(t, (&dialCounter{}).dial, "schema", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROOTCRED_EAS_CONTRACT")
}

func TestWalletCommandWithoutKeys(t *testing.T) {
	cfg := writeConfig(t, "chain_id: 31\n")
	out, err := run(t, (&dialCounter{}).dial, "wallet", "--config", cfg, "-o", "json")
	require.NoError(t, err)

	var resp struct {
		Result struct {
			State struct {
				Status string `json:"status"`
			} `json:"state"`
			Connectors []string `json:"connectors"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "disconnected", resp.Result.State.Status)
	assert.Empty(t, resp.Result.Connectors)
}
