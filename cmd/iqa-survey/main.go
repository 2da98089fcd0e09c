// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the iqa-survey CLI: it serves the
// survey API, runs attempts in a terminal and inspects stored results.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/iqa-survey/internal/logging"
	"github.com/pdiddy/iqa-survey/internal/secrets"
	"github.com/pdiddy/iqa-survey/internal/store"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// logger is built from the log section of the configuration.
var logger = zap.NewNop()

// rootCmd is the base command for the iqa-survey CLI.
var rootCmd = &cobra.Command{
	Use:   "iqa-survey",
	Short: "Forced-choice image quality survey",
	Long: `iqa-survey runs pairwise image quality surveys. Each respondent walks a
deck of information, form and comparison slides; every comparison scene is
ranked by binary insertion from the respondent's choices.

Use serve to expose the survey over HTTP, run to take a survey in the
terminal, and results to inspect what has been recorded.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := appConfig()
		if err != nil {
			return err
		}
		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./iqa-survey.yaml or ~/.config/iqa-survey/iqa-survey.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("source-dir", "", "directory holding slides/, images/ and image-manifest.json")
	rootCmd.PersistentFlags().String("source-url", "", "base URL serving slides/, images/ and image-manifest.json")
	rootCmd.PersistentFlags().String("store", "", "result store driver: memory, sqlite, redis")
	rootCmd.PersistentFlags().String("db", "", "sqlite database path")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("source.dir", rootCmd.PersistentFlags().Lookup("source-dir"))
	viper.BindPFlag("source.base_url", rootCmd.PersistentFlags().Lookup("source-url"))
	viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.attempt_ttl", "2h")
	viper.SetDefault("source.dir", "public")
	viper.SetDefault("source.image_base", "/images")
	viper.SetDefault("source.timeout", "15s")
	viper.SetDefault("source.max_retries", 3)
	viper.SetDefault("surveys.allowed", []string{"survey1", "survey2", "survey3"})
	viper.SetDefault("surveys.default", "survey1")
	viper.SetDefault("store.driver", string(types.StoreSQLite))
	viper.SetDefault("store.path", "data/iqa-survey.db")
	viper.SetDefault("log.level", "info")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("iqa-survey")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "iqa-survey"))
		}
	}

	viper.SetEnvPrefix("IQA_SURVEY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// appConfig decodes the merged configuration.
func appConfig() (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured backend, taking redis credentials from
// .secrets/ when the configuration leaves them empty.
func openStore(ctx context.Context, cfg types.StoreConfig) (store.Store, error) {
	if cfg.RedisPassword == "" {
		cfg.RedisPassword = loadedSecrets.Get(secrets.RedisPassword, "")
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = loadedSecrets.Get(secrets.RedisURL, "localhost:6379")
	}
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", zap.String("driver", string(cfg.Driver)))
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
