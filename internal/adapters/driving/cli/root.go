// Package cli wires the cobra command tree: one command per platform,
// one subcommand per supported action, plus schedule and version.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agoraslabs/agoras-cli/internal/adapters/driven/config/file"
	"github.com/agoraslabs/agoras-cli/internal/adapters/driven/tokenstore/sqlite"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
	"github.com/agoraslabs/agoras-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Injected dependencies. main wires the real adapters; tests swap in
// fakes via the Set functions.
var (
	tokenStore  driven.TokenStore
	configStore driven.ConfigStore
)

// SetTokenStore overrides the credential store. Used by tests and main.
func SetTokenStore(s driven.TokenStore) { tokenStore = s }

// SetConfigStore overrides the config store. Used by tests and main.
func SetConfigStore(s driven.ConfigStore) { configStore = s }

var rootCmd = &cobra.Command{
	Use:   "agoras",
	Short: "Publish and schedule posts across social platforms",
	Long: `agoras publishes posts to Twitter/X, Facebook, Instagram, LinkedIn,
Discord and WhatsApp, and drains a Google Sheets-backed schedule of
queued posts.

Run "agoras <platform> authorize" once per platform to store a
credential, then "agoras <platform> post" to publish.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return ensureStores()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// ensureStores lazily opens the default adapters when main did not
// inject any (the normal binary path).
func ensureStores() error {
	if tokenStore == nil {
		store, err := sqlite.NewStore("")
		if err != nil {
			return fmt.Errorf("opening credential store: %w", err)
		}
		tokenStore = store
	}
	if configStore == nil {
		cfg, err := file.NewConfigStore("")
		if err != nil {
			return fmt.Errorf("opening config store: %w", err)
		}
		configStore = cfg
	}
	return nil
}

// authTimeout returns the configured interactive authorization timeout,
// 0 meaning the callback server default.
func authTimeout() time.Duration {
	if configStore == nil {
		return 0
	}
	if secs := configStore.GetInt("auth.timeout_seconds"); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// callbackPort returns the configured fixed callback port, 0 meaning
// probe the default range.
func callbackPort() int {
	if configStore == nil {
		return 0
	}
	return configStore.GetInt("auth.callback_port")
}

// Execute runs the root command. Any failure, including a failed
// authorize, exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
