package commands

import (
	"fmt"
	"os"

	"github.com/nextmu/updateservice/cmd/updatectl/cmdutil"
	"github.com/nextmu/updateservice/pkg/apiclient"
	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect reassembly and publish jobs",
}

func init() {
	jobCmd.AddCommand(jobListCmd)
}

// JobList is a list of jobs for table rendering.
type JobList []apiclient.JobInfo

// Headers implements output.TableRenderer.
func (JobList) Headers() []string {
	return []string{"ID", "KIND", "STATE", "PROGRESS", "ERROR", "UPDATED"}
}

// Rows implements output.TableRenderer.
func (jl JobList) Rows() [][]string {
	rows := make([][]string, 0, len(jl))
	for _, j := range jl {
		rows = append(rows, []string{
			j.ID,
			j.Job.Kind,
			j.State,
			fmt.Sprintf("%.0f%%", j.Progress),
			cmdutil.EmptyOr(j.Error, "-"),
			j.UpdatedAt.Local().Format("Mon Jan 2 15:04:05 2006"),
		})
	}
	return rows
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active and pending jobs",
	Long: `List every job currently processing or waiting in the queue.

Examples:
  updatectl job list
  updatectl job list -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetAuthenticatedClient()
		if err != nil {
			return err
		}

		resp, err := client.ListJobs()
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}

		return cmdutil.PrintOutput(os.Stdout, resp, len(resp.Jobs) == 0, "No jobs found.", JobList(resp.Jobs))
	},
}
