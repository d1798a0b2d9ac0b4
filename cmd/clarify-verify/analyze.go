package clarifyverify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/temirov/clarify-verify/internal/analysis"
	"github.com/temirov/clarify-verify/internal/fsops"
	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/results"
	"github.com/temirov/clarify-verify/internal/store"
)

type analyzeCommandOptions struct {
	outputPath string
	ledgerPath string
}

func newAnalyzeCommand() *cobra.Command {
	options := &analyzeCommandOptions{}
	command := &cobra.Command{
		Use:   analyzeCommandUse,
		Short: analyzeCommandShort,
		Args:  cobra.MaximumNArgs(analyzeArgsMax),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && options.ledgerPath == "" {
				return errors.New(analyzeInputErrorMessage)
			}
			if len(args) == 1 {
				if err := analyzeResults(cmd.OutOrStdout(), args[0], options.outputPath); err != nil {
					return err
				}
			}
			if options.ledgerPath != "" {
				return summarizeLedger(cmd, options.ledgerPath)
			}
			return nil
		},
	}
	command.Flags().StringVar(&options.outputPath, outputFlagName, "", outputFlagUsage)
	command.Flags().StringVar(&options.ledgerPath, ledgerFlagName, "", ledgerFlagUsage)
	return command
}

func analyzeResults(out io.Writer, resultsPath string, outputPath string) error {
	fs := fsops.NewOS()
	loaded, err := results.Read(fs, resultsPath)
	if err != nil {
		return err
	}
	summary := analysis.Analyze(loaded)
	if err := analysis.Print(out, summary); err != nil {
		return err
	}
	if outputPath == "" {
		return nil
	}
	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := fsops.NewOps(fs).WriteFileAtomic(outputPath, append(encoded, '\n')); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, analysisSavedMessageFormat, outputPath)
	return err
}

func summarizeLedger(command *cobra.Command, ledgerPath string) error {
	ledger, err := store.Open(ledgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := command.Context()
	runs, err := ledger.Runs(ctx)
	if err != nil {
		return err
	}
	counts, err := ledger.StatusCounts(ctx)
	if err != nil {
		return err
	}
	stats, err := ledger.OracleStats(ctx)
	if err != nil {
		return err
	}

	out := command.OutOrStdout()
	fmt.Fprintf(out, "\nLedger %s: %d runs\n", ledgerPath, len(runs))
	for _, status := range []pipeline.Status{pipeline.StatusSuccess, pipeline.StatusFailed, pipeline.StatusUnknown} {
		fmt.Fprintf(out, "  %s: %d\n", status, counts[status])
	}
	for _, stat := range stats {
		fmt.Fprintf(out, "  oracle %s: %d/%d passed\n", stat.Oracle, stat.Passed, stat.Runs)
	}
	return nil
}
