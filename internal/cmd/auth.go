package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/mdoutline/internal/api"
	"github.com/salmonumbrella/mdoutline/internal/secrets"
)

// verifyQuery is a cheap query that fails on a bad token.
const verifyQuery = "[:find ?e :where [?e :node/title] :limit 1]"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Roam credentials",
	Long: `Manage the Roam API token and graph used by the roam backends.

Credentials are stored in your system keychain (macOS Keychain, Windows
Credential Manager, Secret Service) or an encrypted file.

Examples:
  mdoutline auth login --token YOUR_API_TOKEN --graph your-graph-name
  mdoutline auth login  # Interactive prompt for credentials
  mdoutline auth status --verify
  mdoutline auth logout`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store API credentials",
	Long: `Store a Roam API token and graph name in the keyring.

The token is verified with a test query unless --no-verify is set.
Encrypted graphs only accept writes through the Append API; pastes to them
use the roam-append backend automatically.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored credentials",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current authentication status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var (
	loginToken     string
	loginGraph     string
	encryptedGraph bool
	noVerify       bool
	verifyAuth     bool
)

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(authCmd)

	loginCmd.Flags().StringVar(&loginToken, "token", "", "API token")
	loginCmd.Flags().StringVar(&loginGraph, "graph", "", "Graph name")
	loginCmd.Flags().BoolVar(&encryptedGraph, "encrypted-graph", false, "The graph is encrypted (writes use the Append API)")
	loginCmd.Flags().BoolVar(&noVerify, "no-verify", false, "Store credentials without a test query")

	statusCmd.Flags().BoolVar(&verifyAuth, "verify", false, "Verify credentials with the API")
}

// verifyCredentials runs a test query with token against graph.
func verifyCredentials(ctx context.Context, graph, token string) error {
	opts := []api.ClientOption{api.WithLogger(loggerFromContext(ctx))}
	if loadedConfig != nil && strings.TrimSpace(loadedConfig.BaseURL) != "" {
		opts = append(opts, api.WithBaseURL(strings.TrimSpace(loadedConfig.BaseURL)))
	}
	_, err := api.NewClient(graph, token, opts...).Query(ctx, verifyQuery)
	return err
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	token := strings.TrimSpace(loginToken)
	if token == "" {
		token = strings.TrimSpace(envGet("ROAM_API_TOKEN"))
	}
	if token == "" {
		if token, err = promptSecret(ctx, "Enter API token: "); err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	if token == "" {
		return api.ValidationError{Message: "API token is required"}
	}

	graph := strings.TrimSpace(loginGraph)
	if graph == "" {
		graph = strings.TrimSpace(envGet("ROAM_GRAPH_NAME"))
	}
	if graph == "" {
		if graph, err = promptString(ctx, "Enter graph name: "); err != nil {
			return fmt.Errorf("failed to read graph name: %w", err)
		}
	}
	if graph == "" {
		return api.ValidationError{Message: "graph name is required"}
	}

	mode := secrets.ModeCloud
	if encryptedGraph {
		mode = secrets.ModeEncrypted
	}

	verified := false
	if !noVerify && mode == secrets.ModeCloud {
		printf("Verifying credentials...\n")
		if err := verifyCredentials(ctx, graph, token); err != nil {
			var authErr api.AuthenticationError
			if errors.As(err, &authErr) {
				return fmt.Errorf("authentication failed: invalid API token: %w", err)
			}
			// Rate limits and network trouble do not prove the token wrong.
			fmt.Fprintf(stderrFromContext(ctx), "Warning: could not verify credentials: %v\n", err)
		} else {
			verified = true
		}
	}

	now := time.Now().UTC()
	if err := store.SetToken(defaultProfile, secrets.Token{Value: token, Mode: mode, CreatedAt: now}); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if err := store.SetToken(graphKeyPrefix+defaultProfile, secrets.Token{Value: graph, CreatedAt: now}); err != nil {
		return fmt.Errorf("failed to store graph name: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{
			"status":   "authenticated",
			"graph":    graph,
			"mode":     mode,
			"verified": verified,
		})
	}

	printf("\nAuthenticated successfully!\n")
	printf("Graph: %s\n", graph)
	printf("Type: %s\n", modeLabel(mode))
	printf("\nUse --backend roam (or 'mdoutline config set backend roam') to paste into the graph.\n")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	if err := store.DeleteToken(defaultProfile); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	if err := store.DeleteToken(graphKeyPrefix + defaultProfile); err != nil {
		return fmt.Errorf("failed to remove graph name: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{
			"status": "logged_out",
		})
	}
	printf("Logged out successfully.\n")
	return nil
}

// authStatus is the structured form of auth status.
type authStatus struct {
	Authenticated   bool   `json:"authenticated"`
	Profile         string `json:"profile,omitempty"`
	Graph           string `json:"graph,omitempty"`
	Mode            string `json:"mode,omitempty"`
	AuthenticatedAt string `json:"authenticated_at,omitempty"`
	TokenPreview    string `json:"token_preview,omitempty"`
	Verified        *bool  `json:"verified,omitempty"`
	VerifyError     string `json:"verify_error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	tok, err := store.GetToken(defaultProfile)
	if err != nil {
		if structuredOutputRequested() {
			return printStructured(authStatus{})
		}
		fmt.Fprintln(stdout(), "Status: Not authenticated")
		printf("\nRun 'mdoutline auth login' to authenticate.\n")
		return nil
	}

	status := authStatus{
		Authenticated: true,
		Profile:       tok.Profile,
		Mode:          tok.Mode,
		TokenPreview:  maskToken(tok.Value),
	}
	if status.Mode == "" {
		status.Mode = secrets.ModeCloud
	}
	if !tok.CreatedAt.IsZero() {
		status.AuthenticatedAt = tok.CreatedAt.Format(time.RFC3339)
	}
	if graphTok, err := store.GetToken(graphKeyPrefix + defaultProfile); err == nil {
		status.Graph = graphTok.Value
	}

	if verifyAuth {
		ok := false
		switch {
		case status.Graph == "":
			status.VerifyError = "graph name not configured"
		case status.Mode == secrets.ModeEncrypted:
			status.VerifyError = "encrypted graphs cannot be queried"
		default:
			if err := verifyCredentials(ctx, status.Graph, tok.Value); err != nil {
				status.VerifyError = err.Error()
			} else {
				ok = true
			}
		}
		status.Verified = &ok
	}

	if structuredOutputRequested() {
		return printStructured(status)
	}

	w := stdout()
	fmt.Fprintln(w, "Status: Authenticated")
	fmt.Fprintf(w, "Profile: %s\n", status.Profile)
	if status.AuthenticatedAt != "" {
		fmt.Fprintf(w, "Authenticated at: %s\n", status.AuthenticatedAt)
	}
	if status.Graph != "" {
		fmt.Fprintf(w, "Graph: %s\n", status.Graph)
	} else {
		fmt.Fprintln(w, "Graph: Not configured")
	}
	fmt.Fprintf(w, "Type: %s\n", modeLabel(status.Mode))
	fmt.Fprintf(w, "Token: %s\n", status.TokenPreview)
	if status.Verified != nil {
		if *status.Verified {
			fmt.Fprintln(w, "Verification: OK")
		} else {
			fmt.Fprintf(w, "Verification: FAILED - %s\n", status.VerifyError)
		}
	}
	return nil
}

func modeLabel(mode string) string {
	if mode == secrets.ModeEncrypted {
		return "Encrypted (Append API)"
	}
	return "Cloud"
}

// promptString prompts for a string input
func promptString(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)
	return readLine(stdinFromContext(ctx))
}

// promptSecret prompts for a secret input (no echo)
func promptSecret(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)

	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		password, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(stderrFromContext(ctx))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(password)), nil
	}
	return readLine(in)
}

// readLine reads one line without buffering past it, so consecutive
// prompts can share a piped stdin.
func readLine(r io.Reader) (string, error) {
	var (
		line []byte
		buf  [1]byte
	)
	for {
		n, err := r.Read(buf[:])
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
		}
		if err == io.EOF {
			if len(line) == 0 {
				return "", err
			}
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(string(line)), nil
}

// maskToken masks a token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
