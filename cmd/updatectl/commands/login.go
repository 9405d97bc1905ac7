package commands

import (
	"fmt"

	"github.com/nextmu/updateservice/internal/cli/credentials"
	"github.com/spf13/cobra"
)

var (
	loginServer   string
	loginGRPCAddr string
	loginToken    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save connection details for an update distribution server",
	Long: `Save a server's REST and gRPC endpoints and bearer token under a
local context.

There is no username/password exchange here: the bearer token is an opaque
token issued by your organization's OAuth provider and verified by the
server's introspection endpoint, so you obtain it the same way you would
for any other client of that provider and simply hand it to updatectl.

Examples:
  # First login to a server
  updatectl login --server http://localhost:8080 --grpc-addr localhost:9090 --token eyJhbGciOi...

  # Re-login to the stored server with a fresh token
  updatectl login --token eyJhbGciOi...`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "REST API base URL (required on first login)")
	loginCmd.Flags().StringVar(&loginGRPCAddr, "grpc-addr", "", "gRPC endpoint host:port, for the upload command")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Bearer token")
}

func runLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	contextName := store.GetCurrentContextName()
	if contextName == "" {
		contextName = credentials.GenerateContextName(loginServer)
	}

	existing, _ := store.GetContext(contextName)

	serverURL := loginServer
	if serverURL == "" && existing != nil {
		serverURL = existing.ServerURL
	}
	if serverURL == "" {
		return fmt.Errorf("no server URL specified and no saved context found\n\n" +
			"Specify a server URL:\n" +
			"  updatectl login --server http://localhost:8080 --token <token>")
	}

	grpcAddr := loginGRPCAddr
	if grpcAddr == "" && existing != nil {
		grpcAddr = existing.GRPCAddr
	}

	token := loginToken
	if token == "" {
		return fmt.Errorf("--token is required")
	}

	ctx := &credentials.Context{
		ServerURL:   serverURL,
		GRPCAddr:    grpcAddr,
		AccessToken: token,
	}

	if err := store.SetContext(contextName, ctx); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	if err := store.UseContext(contextName); err != nil {
		return fmt.Errorf("failed to set current context: %w", err)
	}

	fmt.Printf("Logged in to %s\n", serverURL)
	fmt.Printf("Context: %s\n", contextName)
	fmt.Printf("Credentials saved to: %s\n", store.ConfigPath())

	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored bearer token for the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}
		if err := store.ClearCurrentContext(); err != nil {
			return fmt.Errorf("not logged in")
		}
		fmt.Println("Logged out.")
		return nil
	},
}
