package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/mdoutline/internal/config"
	"github.com/salmonumbrella/mdoutline/internal/secrets"
)

// credentialCmd binds the credential flags to the package globals.
func credentialCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&apiToken, "token", "", "")
	cmd.Flags().StringVar(&graphName, "graph", "", "")
	cmd.Flags().StringVar(&backendName, "backend", "", "")
	cmd.Flags().StringVar(&dbPath, "db", "", "")
	for name, value := range flags {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	return cmd
}

func TestFlagChanged(t *testing.T) {
	newTestEnv(t)

	if flagChanged(nil, "token") {
		t.Fatal("nil command should report no change")
	}

	parent := &cobra.Command{Use: "parent"}
	var value string
	parent.PersistentFlags().StringVar(&value, "graph", "", "")
	child := &cobra.Command{Use: "child", Run: func(*cobra.Command, []string) {}}
	parent.AddCommand(child)

	if flagChanged(child, "graph") {
		t.Fatal("expected unchanged flag")
	}
	if err := parent.PersistentFlags().Set("graph", "g"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !flagChanged(child, "graph") {
		t.Fatal("expected inherited flag to be changed")
	}
}

func TestResolveCredentialsPrecedence(t *testing.T) {
	env := newTestEnv(t)
	cfg := &config.Config{Token: "cfg-token", GraphName: "cfg-graph"}

	creds := resolveCredentials(credentialCmd(t, nil), cfg)
	if creds.Token != "cfg-token" || creds.Graph != "cfg-graph" {
		t.Fatalf("expected config fallback, got %+v", creds)
	}

	_ = env.store.SetToken(defaultProfile, secrets.Token{Value: "key-token", Mode: secrets.ModeEncrypted})
	_ = env.store.SetToken(graphKeyPrefix+defaultProfile, secrets.Token{Value: "key-graph"})
	creds = resolveCredentials(credentialCmd(t, nil), cfg)
	if creds.Token != "key-token" || creds.Graph != "key-graph" || !isEncrypted(creds) {
		t.Fatalf("expected keyring values, got %+v", creds)
	}

	env.env["ROAM_API_TOKEN"] = "env-token"
	env.env["ROAM_GRAPH_NAME"] = "env-graph"
	creds = resolveCredentials(credentialCmd(t, nil), cfg)
	if creds.Token != "env-token" || creds.Graph != "env-graph" || isEncrypted(creds) {
		t.Fatalf("expected env values, got %+v", creds)
	}

	creds = resolveCredentials(credentialCmd(t, map[string]string{"token": " flag-token ", "graph": "flag-graph"}), cfg)
	if creds.Token != "flag-token" || creds.Graph != "flag-graph" {
		t.Fatalf("expected flag values, got %+v", creds)
	}
}

func TestResolveCredentialsKeyringError(t *testing.T) {
	env := newTestEnv(t)
	env.store.getErr = errors.New("locked")

	creds := resolveCredentials(credentialCmd(t, nil), &config.Config{GraphName: "g"})
	if creds.Token != "" || creds.Graph != "g" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
	if err := creds.validate(); err == nil || !strings.Contains(err.Error(), "API token required") {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if err := (credentials{Token: "t"}).validate(); err == nil || !strings.Contains(err.Error(), "graph name required") {
		t.Fatalf("expected missing graph error, got %v", err)
	}
	if err := (credentials{Token: "t", Graph: "g"}).validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveBackend(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		flag    string
		env     string
		cfg     *config.Config
		want    string
		wantErr bool
	}{
		{name: "default", want: config.BackendSQLite},
		{name: "config", cfg: &config.Config{Backend: "roam"}, want: config.BackendRoam},
		{name: "env beats config", env: "memory", cfg: &config.Config{Backend: "roam"}, want: config.BackendMemory},
		{name: "flag beats env", flag: "Roam-Append", env: "memory", want: config.BackendRoamAppend},
		{name: "invalid", flag: "postgres", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.env["MDOUTLINE_BACKEND"] = tt.env
			flags := map[string]string{}
			if tt.flag != "" {
				flags["backend"] = tt.flag
			}
			got, err := resolveBackend(credentialCmd(t, flags), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveDatabasePath(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg := &config.Config{DatabasePath: "/cfg/notes.db"}
	if got, _ := resolveDatabasePath(credentialCmd(t, nil), cfg); got != "/cfg/notes.db" {
		t.Fatalf("expected config path, got %q", got)
	}

	env.env["MDOUTLINE_DB"] = "/env/notes.db"
	if got, _ := resolveDatabasePath(credentialCmd(t, nil), cfg); got != "/env/notes.db" {
		t.Fatalf("expected env path, got %q", got)
	}

	if got, _ := resolveDatabasePath(credentialCmd(t, map[string]string{"db": "/flag/notes.db"}), cfg); got != "/flag/notes.db" {
		t.Fatalf("expected flag path, got %q", got)
	}

	env.env["MDOUTLINE_DB"] = ""
	got, err := resolveDatabasePath(credentialCmd(t, nil), nil)
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if filepath.Base(got) != "notes.db" {
		t.Fatalf("unexpected default path %q", got)
	}
}

func TestFormatConfigLoadError(t *testing.T) {
	if formatConfigLoadError(nil) != nil {
		t.Fatal("nil error should stay nil")
	}
	base := errors.New("bad yaml")
	err := formatConfigLoadError(base)
	if !errors.Is(err, base) || !strings.HasPrefix(err.Error(), "load config:") {
		t.Fatalf("unexpected error: %v", err)
	}
}
