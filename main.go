package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"touchline_server/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.New()
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "touchline",
		Short:         "Touchline match lifecycle server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an optional config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("storage", config.BackendMemory, "Storage backend (memory or dynamodb)")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("storage.backend", rootCmd.PersistentFlags().Lookup("storage"))

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and socket.io server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().String("port", "8080", "Port to listen on")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair conversation stage mirrors once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			return runReconcile(cmd.Context(), cfg)
		},
	}

	rootCmd.AddCommand(serveCmd, reconcileCmd)
	return rootCmd
}
