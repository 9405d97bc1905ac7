// Package cmdutil provides shared utilities for updatectl commands.
package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/nextmu/updateservice/internal/cli/credentials"
	"github.com/nextmu/updateservice/internal/cli/output"
	"github.com/nextmu/updateservice/internal/cli/prompt"
	"github.com/nextmu/updateservice/pkg/apiclient"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ServerURL string
	GRPCAddr  string
	Token     string
	Output    string
	NoColor   bool
	Verbose   bool
}

// GetAuthenticatedClient returns a REST API client configured from the
// current context. It uses the --server and --token flags if provided,
// otherwise falls back to the stored context's server URL and bearer token.
// There is no refresh flow: tokens are opaque bearer tokens issued by the
// operator's own OAuth provider and introspected server-side, so an expired
// token simply means running 'updatectl login' again with a fresh one.
func GetAuthenticatedClient() (*apiclient.Client, error) {
	if Flags.ServerURL != "" && Flags.Token != "" {
		return apiclient.New(Flags.ServerURL).WithToken(Flags.Token), nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	ctx, err := store.GetCurrentContext()
	if err != nil {
		return nil, fmt.Errorf("not logged in. Run 'updatectl login' first")
	}

	url := ctx.ServerURL
	if Flags.ServerURL != "" {
		url = Flags.ServerURL
	}
	if url == "" {
		return nil, fmt.Errorf("no server URL configured. Run 'updatectl login --server <url> --token <token>' first")
	}

	tok := ctx.AccessToken
	if Flags.Token != "" {
		tok = Flags.Token
	}
	if tok == "" {
		return nil, fmt.Errorf("no access token. Run 'updatectl login' first")
	}

	return apiclient.New(url).WithToken(tok), nil
}

// GetGRPCAddr returns the gRPC endpoint to dial for chunked-upload RPCs,
// from the --grpc-addr flag or the current context.
func GetGRPCAddr() (string, error) {
	if Flags.GRPCAddr != "" {
		return Flags.GRPCAddr, nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return "", fmt.Errorf("failed to initialize credential store: %w", err)
	}
	ctx, err := store.GetCurrentContext()
	if err != nil {
		return "", fmt.Errorf("not logged in. Run 'updatectl login' first")
	}
	if ctx.GRPCAddr == "" {
		return "", fmt.Errorf("no gRPC address configured. Run 'updatectl login --grpc-addr <host:port>' first")
	}
	return ctx.GRPCAddr, nil
}

// GetToken returns the bearer token to attach to a gRPC call, from the
// --token flag or the current context.
func GetToken() (string, error) {
	if Flags.Token != "" {
		return Flags.Token, nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return "", fmt.Errorf("failed to initialize credential store: %w", err)
	}
	ctx, err := store.GetCurrentContext()
	if err != nil {
		return "", fmt.Errorf("not logged in. Run 'updatectl login' first")
	}
	if ctx.AccessToken == "" {
		return "", fmt.Errorf("no access token. Run 'updatectl login' first")
	}
	return ctx.AccessToken, nil
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// IsColorDisabled returns whether color output is disabled.
func IsColorDisabled() bool {
	return Flags.NoColor
}

// PrintOutput prints data in the specified format (JSON, YAML, or table).
// For table format, it displays emptyMsg if data is empty, otherwise uses
// tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	printer := output.NewPrinter(os.Stdout, format, !IsColorDisabled())
	printer.Success(msg)
}

// PrintResourceWithSuccess prints a resource in the specified format. For
// table format, it displays a success message; for JSON/YAML, it outputs
// the resource. Useful for create/edit/process operations.
func PrintResourceWithSuccess(w io.Writer, data any, successMsg string) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		PrintSuccess(successMsg)
		return nil
	}
}

// PrintResource prints a resource in the specified format. For table
// format, it uses the provided tableRenderer; for JSON/YAML, it outputs the
// resource directly.
func PrintResource(w io.Writer, data any, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		return output.PrintTable(w, tableRenderer)
	}
}

// EmptyOr returns value if not empty, otherwise fallback. Useful for table
// display where empty fields should show "-".
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// HandleAbort checks whether err is an abort (Ctrl+C) and prints a message.
// Returns nil for abort (user cancelled), otherwise returns the original
// error.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}
