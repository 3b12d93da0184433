package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Environment variables, e.g. SKILLKIT_SKILLS_ROOT or SKILLKIT_VALIDATE_MODE
	viper.SetEnvPrefix("SKILLKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Config file support, .skillkit.yaml in the working directory or ~/.skillkit
	viper.SetConfigName(".skillkit")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.skillkit")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillkit",
	Short: "Validate and manage a repository of agent skills",
	Long: `skillkit discovers skill packages (directories with a SKILL.md descriptor),
validates their metadata and layout, verifies that script-backed skills honour
the entry script contract, and builds, scaffolds and tests skills.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return logger.Configure(viper.GetString("log_level"), viper.GetString("log_format"))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

// shutdownTracing flushes pending spans; replaced once tracing is initialised
var shutdownTracing = func(context.Context) error { return nil }

// exit flushes telemetry and terminates the process with code
func exit(code int) {
	endCommandSpan(code)
	_ = shutdownTracing(context.Background())
	os.Exit(code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.PersistentFlags().String("skills-root", "skills", "Root directory containing skill packages")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt or json)")

	viper.BindPFlag("skills_root", rootCmd.PersistentFlags().Lookup("skills-root"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	shutdown, err := initTracing(ctx)
	if err != nil {
		presenter.Error(err, "Failed to initialize tracing")
	} else {
		shutdownTracing = shutdown
	}

	rootCmd.AddCommand(withTracing(validateCmd))
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(withTracing(indexCmd))
	rootCmd.AddCommand(withTracing(newCmd))
	rootCmd.AddCommand(withTracing(genTestsCmd))
	rootCmd.AddCommand(withTracing(installCmd))
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		presenter.Error(err, "")
		exit(1)
	}
	exit(0)
}
