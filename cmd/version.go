package cmd

import (
	"fmt"
	"strings"

	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/spf13/cobra"
)

// Build metadata variables, set by -ldflags at compile time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("face-registry %s\n", Version)
		fmt.Printf("  Commit:    %s\n", CommitSHA)
		fmt.Printf("  Built:     %s\n", BuildDate)
		fmt.Printf("  Backends:  %s\n", strings.Join(database.Backends(), ", "))
		fmt.Printf("  Threshold: %.2f (default)\n", constants.DefaultSimilarityThreshold)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
