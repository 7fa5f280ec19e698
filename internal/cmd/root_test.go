package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/mdoutline/internal/config"
	"github.com/salmonumbrella/mdoutline/internal/markdown"
	"github.com/salmonumbrella/mdoutline/internal/output"
)

func TestSetVersionInfo(t *testing.T) {
	prevVersion, prevCommit, prevDate := version, commit, date
	t.Cleanup(func() { SetVersionInfo(prevVersion, prevCommit, prevDate) })

	SetVersionInfo("1.2.3", "abc123", "2026-01-02")
	if rootCmd.Version != "1.2.3" {
		t.Fatalf("unexpected version %q", rootCmd.Version)
	}
	if got := versionTemplate(); got != "mdoutline version 1.2.3 (commit: abc123, built: 2026-01-02)\n" {
		t.Fatalf("unexpected template %q", got)
	}
}

func TestGetOutputFormat(t *testing.T) {
	restore := snapshotCLIState()
	t.Cleanup(restore)

	outputType = ""
	outputFmt = "yaml"
	if got := GetOutputFormat(); got != output.FormatYAML {
		t.Fatalf("got %q, want yaml", got)
	}
	outputFmt = "bogus"
	if got := GetOutputFormat(); got != output.FormatText {
		t.Fatalf("got %q, want text fallback", got)
	}
	outputType = output.FormatJSON
	if got := GetOutputFormat(); got != output.FormatJSON {
		t.Fatalf("got %q, want json", got)
	}
}

func TestNewLogger(t *testing.T) {
	restore := snapshotCLIState()
	t.Cleanup(restore)

	var buf bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetErr(&buf)

	logLevel, debug = "", false
	logger, err := newLogger(cmd, &config.Config{LogLevel: "info"})
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("config level not applied: %q", buf.String())
	}

	buf.Reset()
	debug = true
	logger, err = newLogger(cmd, &config.Config{LogLevel: "error"})
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("debug on")
	if !strings.Contains(buf.String(), "debug on") {
		t.Fatalf("--debug not applied: %q", buf.String())
	}

	buf.Reset()
	logLevel = "error"
	logger, _ = newLogger(cmd, nil)
	logger.Warn("quiet")
	if buf.Len() != 0 {
		t.Fatalf("--log-level not applied: %q", buf.String())
	}

	logLevel = "loud"
	if _, err := newLogger(cmd, nil); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestCLIOutputFormatFromConfig(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig("output_format: yaml\n")

	out, _, err := env.run("", "split", "-m", "# One\nbody")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if !strings.HasPrefix(out, "- title: One\n") {
		t.Fatalf("expected yaml output, got %q", out)
	}

	out, _, err = env.run("", "-o", "text", "split", "-m", "# One\nbody")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if out != "1. One (1 lines)\n" {
		t.Fatalf("expected text output, got %q", out)
	}
}

func TestCLIInvalidErrorFormat(t *testing.T) {
	env := newTestEnv(t)

	if _, _, err := env.run("", "--error-format", "xml", "split", "-m", "x"); err == nil {
		t.Fatal("expected error for invalid --error-format")
	}
}

func TestPasteHelpNamesSectionTitles(t *testing.T) {
	for _, title := range []string{markdown.LeadingSectionTitle, markdown.FallbackSectionTitle} {
		if !strings.Contains(pasteCmd.Long, `"`+title+`"`) {
			t.Fatalf("paste help does not mention %q", title)
		}
	}
}
