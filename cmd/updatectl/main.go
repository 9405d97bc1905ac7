// Command updatectl is the operator CLI for the update distribution
// service: a cobra command tree driving the REST API (release, job,
// servers, status) and the gRPC API (upload).
package main

import (
	"fmt"
	"os"

	"github.com/nextmu/updateservice/cmd/updatectl/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
