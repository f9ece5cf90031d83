package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/tmc/aidos/config"
	"github.com/tmc/aidos/settings"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the AI-Dos backend is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer setupLogging(cfg).Close()

		ctx := cmd.Context()
		if cfg.HealthTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.HealthTimeout)
			defer cancel()
		}

		status, err := newClient(cfg).Health(ctx)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status:         %s\n", status.Status)
		fmt.Fprintf(out, "gemini:         %s\n", configured(status.GeminiConfigured))
		fmt.Fprintf(out, "azure speech:   %s\n", configured(status.AzureSpeechConfigured))
		fmt.Fprintf(out, "redis:          %s\n", configured(status.RedisConfigured))
		return nil
	},
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the client identifier sent with every chat request",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer setupLogging(cfg).Close()

		store := settings.Open(cfg.StatePath)
		defer store.Close()
		fmt.Fprintln(cmd.OutOrStdout(), settings.NewIdentity(store).GetOrCreateID())
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("config file %s already exists", cfgFile)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.Save(cfgFile, config.Default()); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}
