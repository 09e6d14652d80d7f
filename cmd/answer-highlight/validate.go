package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solardome/answer-highlight/internal/annotate"
)

func newValidateCmd(a *app) *cobra.Command {
	in := &inputOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and check the exam inputs without rendering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := annotate.Load(annotate.Config{
				PaperPath:     in.paper,
				ReferencePath: in.reference,
				StudentsPath:  in.students,
				GradingPath:   in.grading,
				AnswerPath:    in.answer,
				StudentID:     in.student,
				QuestionID:    in.question,
			})
			if err != nil {
				return err
			}
			ds := state.Dataset
			a.logger.Debug("inputs loaded",
				zap.Int("inputs", len(state.InputDigests)),
				zap.Ints("students", ds.Students()),
				zap.Int("warnings", len(state.Warnings)))
			out := cmd.OutOrStdout()
			for _, w := range state.Warnings {
				fmt.Fprintln(out, "warning:", w)
			}
			fmt.Fprintf(out, "inputs=%d questions=%d answers=%d gradings=%d warnings=%d complete=%t\n",
				len(state.InputDigests), ds.QuestionCount(), ds.AnswerCount(), ds.GradingCount(), len(state.Warnings), ds.IsComplete())
			return nil
		},
	}
	addInputFlags(cmd.Flags(), in)
	return cmd
}
