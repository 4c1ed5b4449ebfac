package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if versionShort {
			cmd.Println(version)
			return
		}
		cmd.Printf("urbanlex %s\n", version)
		cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if rev, modified := vcsRevision(); rev != "" {
			if modified {
				rev += " (modified)"
			}
			cmd.Printf("  revision: %s\n", rev)
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print the version number only")
	rootCmd.AddCommand(versionCmd)
}

// vcsRevision reports the commit the binary was built from, if stamped.
func vcsRevision() (string, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	var rev string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	return rev, modified
}
