package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/salmonumbrella/mdoutline/internal/output"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

func printStructured(data interface{}) error {
	ctx := currentContext()
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

func currentContext() context.Context {
	if rootCmd != nil && rootCmd.Context() != nil {
		return rootCmd.Context()
	}
	return context.Background()
}

// stdout is the command output writer.
func stdout() io.Writer {
	return stdoutFromContext(currentContext())
}

// printf writes human-readable output unless --quiet is set.
func printf(format string, args ...interface{}) {
	if output.QuietFromContext(currentContext()) {
		return
	}
	fmt.Fprintf(stdout(), format, args...)
}
