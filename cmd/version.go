package cmd

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Version returns a `version` command, printing the commit the binary is built from.
// name is the program name used in the output, it can be empty.
func Version(name string) *cobra.Command {
	name = strings.TrimSpace(name)

	short := "Print version"
	if name != "" {
		short = "Print " + name + " version"
	}

	var hashOnly bool

	command := &cobra.Command{
		Use:                   "version",
		Short:                 short,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		Run: func(cmd *cobra.Command, _ []string) {
			build := readBuild()

			if hashOnly {
				fmt.Fprintln(cmd.OutOrStdout(), build.hash)

				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(name+" version: "+build.String()))
		},
	}

	command.Flags().BoolVar(&hashOnly, "short", false, "print the commit hash only")

	return command
}

// build is the vcs information embedded by `go build`.
// `go run` and `go test` do not embed it.
type build struct {
	hash      string
	timestamp string
}

func (b build) String() string {
	return b.hash + " from " + b.timestamp
}

// readBuild returns the commit of the binary.
// Binaries built from uncommitted changes or without vcs information are reported as @latest.
func readBuild() build {
	var (
		b        build
		modified bool
	)

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				b.hash = setting.Value
			case "vcs.time":
				b.timestamp = setting.Value
			case "vcs.modified":
				modified = setting.Value == "true"
			}
		}
	}

	if modified || b.hash == "" {
		return build{hash: "@latest", timestamp: time.Now().UTC().Format(time.RFC3339)}
	}

	return b
}
