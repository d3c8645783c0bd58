package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	logLevel        string
	credentialsFile string
	noColor         bool
	quiet           bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tweetsweep",
	Short: "Archive and delete your tweets and likes",
	Long: `tweetsweep walks every tweet you have posted or liked, saves each one
(optionally with its media) to a local archive, and deletes or un-likes it.

Rate limits are respected: when a window is exhausted the run sleeps until it
resets and carries on.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Version = version
		if quiet {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetNoColor(true)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.tweetsweep.yaml or ~/.config/tweetsweep/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials-file", "", "legacy INI credentials file (default credentials.txt)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`tweetsweep {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags is the config override map shared by every command
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if credentialsFile != "" {
		flags["credentials-file"] = credentialsFile
	}
	return flags
}
