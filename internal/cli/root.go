// Package cli wires configuration, logging and the packages under internal/ into the
// bubblechat command: "serve" runs the chat service and "chat" runs a client against it.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/varsilias/bubblechat/internal/buildinfo"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bubblechat",
		Short:         "Chat with a persona-driven LLM from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", buildinfo.Version, buildinfo.Commit, buildinfo.BuiltAt),
	}
	root.AddCommand(newServeCmd(), newChatCmd())
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
