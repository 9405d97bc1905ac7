package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nextmu/updateservice/cmd/updatectl/cmdutil"
	"github.com/nextmu/updateservice/internal/cli/prompt"
	"github.com/nextmu/updateservice/pkg/apiclient"
	"github.com/spf13/cobra"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Manage client update versions",
	Long: `Manage the catalog of client update versions.

A release moves through PENDING (chunks still uploading), PROCESSING
(payload being classified and published), and READY (visible to clients)
states. Create a release, upload its payload with 'updatectl upload', then
process it to publish.`,
}

func init() {
	releaseCmd.AddCommand(releaseCreateCmd)
	releaseCmd.AddCommand(releaseEditCmd)
	releaseCmd.AddCommand(releaseProcessCmd)
	releaseCmd.AddCommand(releaseListCmd)
	releaseCmd.AddCommand(releaseFetchCmd)
}

// VersionList is a list of versions for table rendering.
type VersionList []apiclient.Version

// Headers implements output.TableRenderer.
func (VersionList) Headers() []string {
	return []string{"ID", "VERSION", "STATE", "DESCRIPTION", "CREATED"}
}

// Rows implements output.TableRenderer.
func (vl VersionList) Rows() [][]string {
	rows := make([][]string, 0, len(vl))
	for _, v := range vl {
		rows = append(rows, []string{
			v.VersionID,
			fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision),
			v.State,
			cmdutil.EmptyOr(v.Description, "-"),
			v.CreatedAt.Local().Format("Mon Jan 2 15:04:05 2006"),
		})
	}
	return rows
}

var releaseBumpType int
var releaseDescription string

var releaseCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Allocate a new version",
	Long: `Allocate a new version tuple, bumping major (0), minor (1), or
revision (2) relative to the newest existing version.

Without --description the command runs interactively, prompting for the
bump type and description.

Examples:
  updatectl release create --type 2 --description "hotfix"
  updatectl release create --type 0 --description "season 4"
  updatectl release create`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bumpType := releaseBumpType
		description := releaseDescription

		if description == "" {
			var err error
			bumpType, description, err = promptCreateRelease()
			if err != nil {
				return cmdutil.HandleAbort(err)
			}
		}

		client, err := cmdutil.GetAuthenticatedClient()
		if err != nil {
			return err
		}

		resp, err := client.CreateVersion(apiclient.CreateVersionRequest{
			Type:        bumpType,
			Description: description,
		})
		if err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, resp,
			fmt.Sprintf("Created version %s (%s)", resp.Version, resp.ID))
	},
}

// promptCreateRelease walks the operator through bump type and description
// when the command is run without --description.
func promptCreateRelease() (int, string, error) {
	choice, err := prompt.Select("Bump type", []prompt.SelectOption{
		{Label: "Revision (x.y.Z)", Value: "2", Description: "Hotfixes and asset-only updates"},
		{Label: "Minor (x.Y.0)", Value: "1", Description: "Feature updates"},
		{Label: "Major (X.0.0)", Value: "0", Description: "Breaking client updates"},
	})
	if err != nil {
		return 0, "", err
	}
	bumpType, err := strconv.Atoi(choice)
	if err != nil {
		return 0, "", err
	}

	description, err := prompt.InputRequired("Description")
	if err != nil {
		return 0, "", err
	}

	ok, err := prompt.Confirm(fmt.Sprintf("Create version (%s)", description), true)
	if err != nil {
		return 0, "", err
	}
	if !ok {
		return 0, "", prompt.ErrAborted
	}
	return bumpType, description, nil
}

func init() {
	releaseCreateCmd.Flags().IntVar(&releaseBumpType, "type", 2, "Bump type: 0=major, 1=minor, 2=revision")
	releaseCreateCmd.Flags().StringVar(&releaseDescription, "description", "", "Release description")
}

var releaseEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a version's description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetAuthenticatedClient()
		if err != nil {
			return err
		}

		resp, err := client.EditVersion(apiclient.EditVersionRequest{
			ID:          args[0],
			Description: releaseDescription,
		})
		if err != nil {
			return fmt.Errorf("failed to edit version: %w", err)
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, resp, "Version updated")
	},
}

func init() {
	releaseEditCmd.Flags().StringVar(&releaseDescription, "description", "", "New description")
}

var releaseProcessCmd = &cobra.Command{
	Use:   "process <id>",
	Short: "Publish an uploaded version",
	Long: `Enqueue the publish job for a version whose payload has finished
uploading. The job extracts and classifies the uploaded archive and marks
the version READY once done; use 'updatectl job list' to watch it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetAuthenticatedClient()
		if err != nil {
			return err
		}

		resp, err := client.ProcessVersion(apiclient.ProcessVersionRequest{ID: args[0]})
		if err != nil {
			return fmt.Errorf("failed to process version: %w", err)
		}

		return cmdutil.PrintResourceWithSuccess(os.Stdout, resp,
			fmt.Sprintf("Enqueued publish job %s", resp.JobID))
	},
}

var releaseListPage, releaseListSize int

var releaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List versions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetAuthenticatedClient()
		if err != nil {
			return err
		}

		resp, err := client.ListVersions(releaseListPage, releaseListSize)
		if err != nil {
			return fmt.Errorf("failed to list versions: %w", err)
		}

		return cmdutil.PrintOutput(os.Stdout, resp, len(resp.Versions) == 0, "No versions found.", VersionList(resp.Versions))
	},
}

func init() {
	releaseListCmd.Flags().IntVar(&releaseListPage, "page", 0, "Page number")
	releaseListCmd.Flags().IntVar(&releaseListSize, "size", 20, "Page size (4-50)")
}

var releaseFetchCmd = &cobra.Command{
	Use:   "fetch <id>",
	Short: "Show a version's detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetAuthenticatedClient()
		if err != nil {
			return err
		}

		detail, err := client.FetchVersion(args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch version: %w", err)
		}

		return cmdutil.PrintResource(os.Stdout, detail, versionDetailTable{detail})
	},
}

type versionDetailTable struct {
	d *apiclient.VersionDetail
}

func (versionDetailTable) Headers() []string {
	return []string{"ID", "VERSION", "STATE", "DESCRIPTION", "FILES", "CREATED"}
}

func (t versionDetailTable) Rows() [][]string {
	return [][]string{{
		t.d.ID,
		t.d.Version,
		t.d.State,
		cmdutil.EmptyOr(t.d.Description, "-"),
		fmt.Sprintf("%d", t.d.FilesCount),
		t.d.CreatedAt.Local().Format("Mon Jan 2 15:04:05 2006"),
	}}
}
