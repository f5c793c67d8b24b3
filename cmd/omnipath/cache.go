package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnipath-client/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.client.ClearCache(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Cleared %s\n", s.client.Cache().Path())
		return nil
	},
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where the cache lives and how many entries it holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.client.Cache().Len(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count cache entries: %w", err)
		}
		fmt.Printf("path\t%s\nentries\t%d\n", s.client.Cache().Path(), n)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configWriteCmd = &cobra.Command{
	Use:   "write [path]",
	Short: "Write the effective configuration, without the password",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManager(cmd)
		if err != nil {
			return err
		}

		path := config.DefaultConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		if err := m.Write(path); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheInfoCmd)
	configCmd.AddCommand(configWriteCmd)
	rootCmd.AddCommand(cacheCmd, configCmd)
}
