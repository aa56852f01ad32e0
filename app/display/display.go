// Package display prints command results as coloured text or JSON.
package display

import (
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/fbiville/markdown-table-formatter/pkg/markdown"
	"github.com/spf13/cobra"
)

const OutputFlag = "output"

const (
	FormatText = "text"
	FormatJSON = "json"
)

// MsgFormatter is a command result that renders both ways.
type MsgFormatter interface {
	json.Marshaler
	encoding.TextMarshaler
}

// BindOutputFlag registers --output on cmd and its children.
func BindOutputFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(OutputFlag, "o", FormatText, "output format: text or json")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString(OutputFlag)
	if err != nil {
		return FormatText, nil
	}
	switch format {
	case FormatText, FormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

type jsonEnvelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// PrintCmd writes msg to the command's output in the selected format.
func PrintCmd(cmd *cobra.Command, msg MsgFormatter) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), format, msg)
}

func render(w io.Writer, format string, msg MsgFormatter) error {
	if format == FormatJSON {
		raw, err := msg.MarshalJSON()
		if err != nil {
			return err
		}
		return writeJSON(w, jsonEnvelope{Result: raw})
	}

	text, err := msg.MarshalText()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(string(text), "\n"))
	return err
}

// PrintErr reports err in the selected format and returns it unchanged so
// the command still exits non-zero.
func PrintErr(cmd *cobra.Command, err error) error {
	format, ferr := outputFormat(cmd)
	if ferr != nil || format != FormatJSON {
		return err
	}
	cmd.SilenceErrors = true
	if werr := writeJSON(cmd.OutOrStdout(), jsonEnvelope{Error: err.Error()}); werr != nil {
		return werr
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders rows as a markdown table.
func Table(headers []string, rows [][]string) (string, error) {
	return markdown.NewTableFormatterBuilder().
		WithPrettyPrint().
		Build(headers...).
		Format(rows)
}

var (
	Success = color.New(color.FgGreen, color.Bold).SprintFunc()
	Failure = color.New(color.FgRed, color.Bold).SprintFunc()
	Warning = color.New(color.FgYellow).SprintFunc()
	Label   = color.New(color.FgCyan).SprintFunc()
)

// StatusColor colours a credential status for terminals.
func StatusColor(status string) string {
	switch status {
	case "Valid":
		return Success(status)
	case "Revoked":
		return Failure(status)
	default:
		return Warning(status)
	}
}
