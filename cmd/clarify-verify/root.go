package clarifyverify

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the CLI.
func NewRootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:           applicationName,
		Short:         rootCommandShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	command.AddCommand(newRunCommand(), newAnalyzeCommand(), newConfigCommand())
	return command
}

// Execute runs the CLI with the given context and returns the command error.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
