package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/mdoutline/internal/config"
	"github.com/salmonumbrella/mdoutline/internal/secrets"
)

const (
	// defaultProfile is the keyring profile holding the API token
	defaultProfile = "default"
	// graphKeyPrefix prefixes the profile holding the graph name
	graphKeyPrefix = "graph:"
)

// credentials are the resolved Roam connection settings.
type credentials struct {
	Token string
	Graph string
	// Mode is the keyring token mode; secrets.ModeEncrypted selects the
	// Append API.
	Mode string
}

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

// resolveCredentials resolves token and graph with precedence
// flags > env > keyring > config. The mode only comes from the keyring.
func resolveCredentials(cmd *cobra.Command, cfg *config.Config) credentials {
	var creds credentials
	if flagChanged(cmd, "token") {
		creds.Token = strings.TrimSpace(apiToken)
	}
	if flagChanged(cmd, "graph") {
		creds.Graph = strings.TrimSpace(graphName)
	}

	if creds.Token == "" {
		creds.Token = strings.TrimSpace(envGet("ROAM_API_TOKEN"))
	}
	if creds.Graph == "" {
		creds.Graph = strings.TrimSpace(envGet("ROAM_GRAPH_NAME"))
	}

	if creds.Token == "" || creds.Graph == "" {
		if store, err := openSecretsStore(); err == nil {
			if creds.Token == "" {
				if tok, err := store.GetToken(defaultProfile); err == nil {
					creds.Token = tok.Value
					creds.Mode = tok.Mode
				}
			}
			if creds.Graph == "" {
				if tok, err := store.GetToken(graphKeyPrefix + defaultProfile); err == nil {
					creds.Graph = tok.Value
				}
			}
		}
	}

	if creds.Token == "" && cfg != nil {
		creds.Token = strings.TrimSpace(cfg.Token)
	}
	if creds.Graph == "" && cfg != nil {
		creds.Graph = strings.TrimSpace(cfg.GraphName)
	}
	return creds
}

// validate reports missing credentials with a hint for the fix.
func (c credentials) validate() error {
	if c.Token == "" {
		return fmt.Errorf("API token required. Set ROAM_API_TOKEN or use --token flag.\nRun 'mdoutline auth login' to configure authentication")
	}
	if c.Graph == "" {
		return fmt.Errorf("graph name required. Set ROAM_GRAPH_NAME or use --graph flag")
	}
	return nil
}

// resolveBackend picks the notebook backend: --backend > MDOUTLINE_BACKEND >
// config > sqlite. A keyring token for an encrypted graph turns roam into
// roam-append.
func resolveBackend(cmd *cobra.Command, cfg *config.Config) (string, error) {
	backend := ""
	switch {
	case flagChanged(cmd, "backend"):
		backend = backendName
	case strings.TrimSpace(envGet("MDOUTLINE_BACKEND")) != "":
		backend = envGet("MDOUTLINE_BACKEND")
	case cfg != nil:
		backend = cfg.Backend
	}
	backend = strings.ToLower(strings.TrimSpace(backend))

	switch backend {
	case "":
		return config.BackendSQLite, nil
	case config.BackendSQLite, config.BackendRoam, config.BackendRoamAppend, config.BackendMemory:
		return backend, nil
	default:
		return "", fmt.Errorf("invalid backend %q (expected sqlite|roam|roam-append|memory)", backend)
	}
}

// resolveDatabasePath picks the SQLite file: --db > MDOUTLINE_DB > config >
// ~/.config/mdoutline/notes.db.
func resolveDatabasePath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if flagChanged(cmd, "db") && strings.TrimSpace(dbPath) != "" {
		return strings.TrimSpace(dbPath), nil
	}
	if v := strings.TrimSpace(envGet("MDOUTLINE_DB")); v != "" {
		return v, nil
	}
	if cfg != nil && strings.TrimSpace(cfg.DatabasePath) != "" {
		return strings.TrimSpace(cfg.DatabasePath), nil
	}
	return config.DefaultDatabasePath()
}

func isEncrypted(creds credentials) bool {
	return creds.Mode == secrets.ModeEncrypted
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}
