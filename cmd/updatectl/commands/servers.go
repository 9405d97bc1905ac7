package commands

import (
	"os"

	"github.com/nextmu/updateservice/cmd/updatectl/cmdutil"
	"github.com/spf13/cobra"
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List mirror servers clients may download from",
}

func init() {
	serversCmd.AddCommand(serversListCmd)
}

// ServerList is a list of mirror server URLs for table rendering.
type ServerList []string

// Headers implements output.TableRenderer.
func (ServerList) Headers() []string { return []string{"URL"} }

// Rows implements output.TableRenderer.
func (sl ServerList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, url := range sl {
		rows = append(rows, []string{url})
	}
	return rows
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mirror servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetAuthenticatedClient()
		if err != nil {
			return err
		}

		resp, err := client.ListServers()
		if err != nil {
			return err
		}

		return cmdutil.PrintOutput(os.Stdout, resp, len(resp.Servers) == 0, "No servers found.", ServerList(resp.Servers))
	},
}
