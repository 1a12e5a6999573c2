// Package main is the entry point for the sslresolve binary.
// It resolves per-role SSL parameter bundles from a deployment globals file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/polisai/sslresolve/pkg/globals"
	"github.com/polisai/sslresolve/pkg/logging"
	"github.com/polisai/sslresolve/pkg/ssl"
)

const (
	defaultFormat   = "yaml"
	defaultLogLevel = "info"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for sslresolve
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sslresolve",
		Short: "Resolve per-role SSL parameters from a globals file",
		Long: `Resolves the keystore and truststore parameters each role of a cluster
test deployment will run with, given the deployment globals tree.

Example:
  sslresolve --globals globals.yaml --role client --role server`,
		RunE: runResolve,
	}

	rootCmd.Flags().StringP("globals", "g", "", "Path to the globals file (YAML or JSON)")
	rootCmd.Flags().StringSliceP("role", "r", []string{"client"}, "Role(s) to resolve")
	rootCmd.Flags().StringP("format", "f", defaultFormat, "Output format (yaml, json)")
	rootCmd.Flags().BoolP("watch", "w", false, "Watch the globals file and re-resolve on change")
	rootCmd.Flags().StringP("log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	_ = rootCmd.MarkFlagRequired("globals")

	return rootCmd
}

// roleReport is the printable resolution outcome for one role.
type roleReport struct {
	Role               string `json:"role" yaml:"role"`
	Enabled            bool   `json:"enabled" yaml:"enabled"`
	KeystorePath       string `json:"key_store_path,omitempty" yaml:"key_store_path,omitempty"`
	KeystorePassword   string `json:"key_store_password,omitempty" yaml:"key_store_password,omitempty"`
	TruststorePath     string `json:"trust_store_path,omitempty" yaml:"trust_store_path,omitempty"`
	TruststorePassword string `json:"trust_store_password,omitempty" yaml:"trust_store_password,omitempty"`
}

func runResolve(cmd *cobra.Command, _ []string) error {
	globalsPath, _ := cmd.Flags().GetString("globals")
	roles, _ := cmd.Flags().GetStringSlice("role")
	format, _ := cmd.Flags().GetString("format")
	watch, _ := cmd.Flags().GetBool("watch")
	logLevel, _ := cmd.Flags().GetString("log-level")

	logger := logging.NewLogger(logging.Config{Level: logLevel, Pretty: true})

	format = strings.TrimSpace(strings.ToLower(format))
	switch format {
	case "yaml", "json":
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}

	if !watch {
		g, err := globals.Load(globalsPath)
		if err != nil {
			return err
		}
		return resolveAndPrint(cmd, g, roles, format)
	}

	provider, err := globals.NewFileProvider(globalsPath, logger)
	if err != nil {
		return err
	}
	defer provider.Close()

	updates := provider.Subscribe()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case g := <-updates:
			if err := resolveAndPrint(cmd, g, roles, format); err != nil {
				// Keep watching: an operator mid-edit should see the
				// error and fix the file, not lose the watch.
				logger.Error().Err(err).Msg("resolution failed")
			}
		case <-stop:
			return nil
		}
	}
}

func resolveAndPrint(cmd *cobra.Command, g globals.Globals, roles []string, format string) error {
	reports := make([]roleReport, 0, len(roles))
	for _, role := range roles {
		params, err := ssl.Resolve(g, role)
		if err != nil {
			return fmt.Errorf("role %s: %w", role, err)
		}

		report := roleReport{Role: role}
		if params != nil {
			report.Enabled = true
			report.KeystorePath = params.KeystorePath
			report.KeystorePassword = params.KeystorePassword
			report.TruststorePath = params.TruststorePath
			report.TruststorePassword = params.TruststorePassword
		}
		reports = append(reports, report)
	}

	out, err := render(reports, format)
	if err != nil {
		return err
	}
	cmd.Println(strings.TrimRight(out, "\n"))
	return nil
}

func render(reports []roleReport, format string) (string, error) {
	if format == "json" {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render output: %w", err)
		}
		return string(data), nil
	}

	data, err := yaml.Marshal(reports)
	if err != nil {
		return "", fmt.Errorf("failed to render output: %w", err)
	}
	return string(data), nil
}
