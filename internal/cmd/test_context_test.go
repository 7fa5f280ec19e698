package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/salmonumbrella/mdoutline/internal/output"
	"github.com/salmonumbrella/mdoutline/internal/secrets"
)

func withTestContext(t *testing.T, format output.Format, yes bool) (*bytes.Buffer, *bytes.Buffer, func()) {
	t.Helper()
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	ctx := withIO(context.Background(), in, out, errBuf)
	ctx = output.WithFormat(ctx, format)
	ctx = output.WithYes(ctx, yes)
	ctx = output.WithQuiet(ctx, true)
	prevCtx := rootCmd.Context()
	rootCmd.SetContext(ctx)

	prevType := outputType
	prevFmt := outputFmt
	outputType = format
	outputFmt = string(format)

	return out, errBuf, func() {
		outputType = prevType
		outputFmt = prevFmt
		rootCmd.SetContext(prevCtx)
	}
}

type fakeStore struct {
	tokens  map[string]secrets.Token
	deleted []string
	getErr  error
}

func (f *fakeStore) Keys() ([]string, error) { return nil, nil }

func (f *fakeStore) SetToken(profile string, tok secrets.Token) error {
	if f.tokens == nil {
		f.tokens = make(map[string]secrets.Token)
	}
	tok.Profile = profile
	f.tokens[profile] = tok
	return nil
}

func (f *fakeStore) GetToken(profile string) (secrets.Token, error) {
	if f.getErr != nil {
		return secrets.Token{}, f.getErr
	}
	if tok, ok := f.tokens[profile]; ok {
		return tok, nil
	}
	return secrets.Token{}, errors.New("not found")
}

func (f *fakeStore) DeleteToken(profile string) error {
	f.deleted = append(f.deleted, profile)
	delete(f.tokens, profile)
	return nil
}

func (f *fakeStore) ListTokens() ([]secrets.Token, error) { return nil, nil }

// testEnv runs the root command against a temp config and database with the
// environment, keyring and clipboard replaced.
type testEnv struct {
	t          *testing.T
	configPath string
	dbPath     string
	env        map[string]string
	store      *fakeStore
	clipboard  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	e := &testEnv{
		t:          t,
		configPath: filepath.Join(dir, "config.yaml"),
		dbPath:     filepath.Join(dir, "notes.db"),
		env:        map[string]string{},
		store:      &fakeStore{},
	}
	if err := os.WriteFile(e.configPath, nil, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	prevEnv, prevSecrets, prevClipboard := envGet, openSecretsStore, readClipboardFunc
	envGet = func(key string) string { return e.env[key] }
	openSecretsStore = func() (secrets.Store, error) { return e.store, nil }
	readClipboardFunc = func(context.Context) (string, error) { return e.clipboard, nil }

	restore := snapshotCLIState()
	t.Cleanup(func() {
		restore()
		envGet, openSecretsStore, readClipboardFunc = prevEnv, prevSecrets, prevClipboard
	})
	return e
}

func (e *testEnv) writeConfig(content string) {
	e.t.Helper()
	if err := os.WriteFile(e.configPath, []byte(content), 0o600); err != nil {
		e.t.Fatalf("write config: %v", err)
	}
}

// run executes the CLI with stdin and args and returns stdout and stderr.
// Errors are printed the way Execute prints them.
func (e *testEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()
	resetCommandState(rootCmd)

	in := bytes.NewBufferString(stdin)
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetContext(withIO(context.Background(), in, out, errBuf))

	rootCmd.SetArgs(append([]string{"--config", e.configPath, "--db", e.dbPath}, args...))
	err := rootCmd.Execute()
	if err != nil {
		printCommandError(currentContext(), err)
	}
	return out.String(), errBuf.String(), err
}

func snapshotCLIState() func() {
	prevBackend := backendName
	prevDB := dbPath
	prevGraph := graphName
	prevToken := apiToken
	prevOutputFmt := outputFmt
	prevOutputType := outputType
	prevDebug := debug
	prevLogLevel := logLevel
	prevConfig := configFile
	prevQueryExpr := queryExpr
	prevQueryFile := queryFile
	prevErrorFmt := errorFmt
	prevQuiet := quietFlag
	prevYes := yesFlag
	prevResultLimit := resultLimit
	prevResultSort := resultSort
	prevResultDesc := resultDesc
	prevLoaded := loadedConfig

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		backendName = prevBackend
		dbPath = prevDB
		graphName = prevGraph
		apiToken = prevToken
		outputFmt = prevOutputFmt
		outputType = prevOutputType
		debug = prevDebug
		logLevel = prevLogLevel
		configFile = prevConfig
		queryExpr = prevQueryExpr
		queryFile = prevQueryFile
		errorFmt = prevErrorFmt
		quietFlag = prevQuiet
		yesFlag = prevYes
		resultLimit = prevResultLimit
		resultSort = prevResultSort
		resultDesc = prevResultDesc
		loadedConfig = prevLoaded

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetContext(prevCtx)
		rootCmd.SetArgs(nil)
		resetCommandState(rootCmd)
	}
}

// resetCommandState puts every flag of cmd and its subcommands back to its
// default and drops contexts left by an earlier run.
func resetCommandState(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		sub.SetContext(context.Background())
		resetCommandState(sub)
	}
}
