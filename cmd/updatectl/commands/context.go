package commands

import (
	"fmt"
	"os"

	"github.com/nextmu/updateservice/internal/cli/credentials"
	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage server contexts",
	Long: `Manage connection contexts for multiple update distribution servers.

Contexts let you save and switch between different server configurations,
similar to kubectl contexts.

Subcommands:
  list     List all configured contexts
  use      Switch to a different context
  current  Show the current context
  rename   Rename a context
  delete   Delete a context`,
}

func init() {
	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextUseCmd)
	contextCmd.AddCommand(contextCurrentCmd)
	contextCmd.AddCommand(contextRenameCmd)
	contextCmd.AddCommand(contextDeleteCmd)
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		current := store.GetCurrentContextName()
		names := store.ListContexts()
		if len(names) == 0 {
			fmt.Println("No contexts configured.")
			return nil
		}
		for _, name := range names {
			ctx, err := store.GetContext(name)
			if err != nil {
				continue
			}
			marker := "  "
			if name == current {
				marker = "* "
			}
			fmt.Printf("%s%s\t%s\n", marker, name, ctx.ServerURL)
		}
		return nil
	},
}

var contextUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch to a different context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		if err := store.UseContext(args[0]); err != nil {
			return fmt.Errorf("context %q not found", args[0])
		}
		fmt.Printf("Switched to context %q\n", args[0])
		return nil
	},
}

var contextCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		name := store.GetCurrentContextName()
		if name == "" {
			fmt.Println("No current context set.")
			return nil
		}
		ctx, err := store.GetCurrentContext()
		if err != nil {
			return err
		}
		fmt.Printf("Context:   %s\n", name)
		fmt.Printf("Server:    %s\n", ctx.ServerURL)
		fmt.Printf("gRPC addr: %s\n", ctx.GRPCAddr)
		return nil
	},
}

var contextRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a context",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		if err := store.RenameContext(args[0], args[1]); err != nil {
			return fmt.Errorf("context %q not found", args[0])
		}
		fmt.Printf("Renamed context %q to %q\n", args[0], args[1])
		return nil
	},
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}
		if err := store.DeleteContext(args[0]); err != nil {
			return fmt.Errorf("context %q not found", args[0])
		}
		fmt.Fprintf(os.Stdout, "Deleted context %q\n", args[0])
		return nil
	},
}
