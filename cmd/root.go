package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/codeplay/internal/config"
	"github.com/conneroisu/codeplay/internal/logging"
	"github.com/conneroisu/codeplay/internal/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "codeplay",
	Short: "A live code playground with a sandboxed preview",
	Long: `Codeplay is a browser playground for HTML, CSS, JavaScript and React
snippets. Edits are rendered into a sandboxed preview after a short pause,
console output is mirrored back to the page, and the snippet is saved
locally between sessions.

Quick Start:
  codeplay serve                  Start the playground and open a browser
  codeplay templates              List the starter templates
  codeplay render index.html      Print the preview document for a file
  codeplay run app.js             Run a script headlessly

Command Aliases:
  serve (s), render (r), templates (t)`,
	Version:       version.Get().Short(),
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .codeplay.yml, can also use CODEPLAY_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	AddFlagValidation(rootCmd.PersistentFlags(), "log-format", ValidateOneOf("text", "json"))
}

// initConfig picks the config file: --config first, then
// CODEPLAY_CONFIG_FILE, then .codeplay.yml in the working directory.
// A missing file is not an error; defaults and the environment still apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("CODEPLAY_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".codeplay")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from the log flags. Logs go to the
// command's stderr so that stdout stays clean for rendered output.
func newLogger(cmd *cobra.Command) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(viper.GetString("log.level")),
		Format:    viper.GetString("log.format"),
		Output:    cmd.ErrOrStderr(),
		Component: "codeplay",
	})
}

// loadConfig reads the validated configuration. Keeping it behind a
// variable lets tests run commands against an isolated viper instance.
var loadConfig = config.Load
