package main

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	authd "github.com/goliatone/go-authd"
)

// envPrefix scopes the environment overlay, e.g.
// AUTHD_AUTH__SIGNING_KEY -> auth.signing_key.
const envPrefix = "AUTHD_"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "authd - credential issuance service",
		Long: `authd registers user accounts, authenticates credentials,
issues signed bearer tokens and validates them against a
server-side session store.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInspectCmd())

	return cmd
}

// loadConfig builds the service configuration from an optional YAML
// file overlaid with AUTHD_* environment variables. Env wins.
func loadConfig() (*authd.Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, err
	}

	cfg := &authd.Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
