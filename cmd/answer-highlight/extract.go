package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solardome/answer-highlight/internal/highlight"
)

func newExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file.html>",
		Short: "Print the metadata of every highlighted region in a rendered page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			spans, err := highlight.ExtractAll(string(b))
			if err != nil {
				return err
			}
			if spans == nil {
				spans = []highlight.Span{}
			}
			a.logger.Debug("regions extracted", zap.String("path", args[0]), zap.Int("count", len(spans)))
			out, err := json.MarshalIndent(spans, "", "  ")
			if err != nil {
				return fmt.Errorf("encode spans: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
