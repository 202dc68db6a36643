package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kernbench/internal/config"
	"kernbench/internal/telemetry"
	"kernbench/internal/ui"
)

var exit = os.Exit
var cfgFile string

// closeLog releases the log file opened by initConfig.
var closeLog = func() {}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kernbench",
	Short: "Regression harness for sparse operator kernels",
	Long: `kernbench times quantum solver and sparse multiply kernels in the CSR and
DIA storage formats. Every trial runs in a fresh single-threaded worker
process; results are reduced to mean and spread, persisted as CSV and
compared between builds.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			closeLog()
			fmt.Fprintf(os.Stderr, "%s\nError: panic: %v\n", debug.Stack(), r)
			exit(1)
		}
	}()

	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().String("log-format", "json", "Console log format: json or text")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	bindFlags()
}

// bindFlags lets the persistent flags override their config keys.
func bindFlags() {
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
		return
	}
	if err := config.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration:\n%v\n", err)
		exit(1)
		return
	}

	s, err := config.Current()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
		return
	}

	closeLog()
	closeLog = telemetry.InitLogger(telemetry.LogOptions{
		Debug:  s.Verbose,
		Format: s.LogFormat,
		File:   s.LogFile,
	})
	ui.Setup(os.Stdout, viper.GetBool("no_color"))
}
