package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/config"
	"academy-quiz-service/internal/domain"
	"academy-quiz-service/internal/logger"
	"github.com/spf13/cobra"
)

type playOptions struct {
	userID    string
	mode      string
	academyID string
	topicID   string
}

// NewPlayCmd runs one quiz session in the terminal against the configured
// stores.
func NewPlayCmd(configPath *string) *cobra.Command {
	opts := playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Answer a quiz interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.NewWithOutput("quiz-service", cfg.Log.Level, cmd.ErrOrStderr())
			b, err := buildBackends(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			out := cmd.OutOrStdout()
			notifier := app.NotifierFunc(func(n app.Notification) {
				fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Message)
			})
			ctrl := app.NewController(domain.User{ID: opts.userID}, b.deps, notifier, controllerOptions(cfg)...)
			if err := play(cmd, ctrl, opts, cmd.InOrStdin(), out); err != nil {
				return err
			}
			return printPoints(cmd, b.deps.Profiles, opts.userID, out)
		},
	}
	cmd.Flags().StringVar(&opts.userID, "user", "", "user id taking the quiz")
	cmd.Flags().StringVar(&opts.mode, "mode", string(domain.ModeTest), "test or practice")
	cmd.Flags().StringVar(&opts.academyID, "academy", "demo", "academy id")
	cmd.Flags().StringVar(&opts.topicID, "topic", "go-basics", "topic id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func play(cmd *cobra.Command, ctrl *app.Controller, opts playOptions, in io.Reader, out io.Writer) error {
	ctx := cmd.Context()
	err := ctrl.LoadQuestions(ctx, app.LoadRequest{
		Mode:      domain.Mode(opts.mode),
		AcademyID: opts.academyID,
		TopicID:   opts.topicID,
	})
	if errors.Is(err, domain.ErrNoQuestionsAvailable) {
		fmt.Fprintln(out, "No questions available.")
		return nil
	}
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		q, ok := ctrl.CurrentQuestion()
		if !ok {
			break
		}
		snap := ctrl.Snapshot()
		fmt.Fprintf(out, "\nQuestion %d/%d: %s\n", snap.CurrentIndex+1, snap.Total, q.Prompt)
		for _, opt := range q.Options {
			fmt.Fprintf(out, "  %s) %s\n", opt.Label, opt.Text)
		}

		outcome, err := answerFrom(cmd, ctrl, q, scanner, out)
		if err != nil {
			return err
		}
		if outcome.Correct {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Wrong, the answer was %s.\n", outcome.Record.CorrectOption)
		}
		if ctrl.IsFinished() {
			break
		}
		ctrl.NextQuestion()
	}

	stats, err := ctrl.CompleteQuiz(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nQuiz complete")
	fmt.Fprintf(out, "Total questions: %d\n", stats.TotalQuestions)
	fmt.Fprintf(out, "Correct: %d  Incorrect: %d  (%d%%)\n", stats.CorrectAnswers, stats.IncorrectAnswers, stats.Percentage)
	fmt.Fprintf(out, "Average time: %.2fs\n", stats.AverageSeconds)
	fmt.Fprintf(out, "Points earned: %d\n", stats.PointsEarned)
	if stats.Mastery != "" {
		fmt.Fprintf(out, "Mastery: %s\n", stats.Mastery)
	}
	if stats.FailedRemaining > 0 {
		fmt.Fprintf(out, "Questions left to practice: %d\n", stats.FailedRemaining)
	}
	return nil
}

// answerFrom prompts until a line naming one of q's options arrives.
func answerFrom(cmd *cobra.Command, ctrl *app.Controller, q domain.Question, scanner *bufio.Scanner, out io.Writer) (app.AnswerOutcome, error) {
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return app.AnswerOutcome{}, err
			}
			return app.AnswerOutcome{}, io.ErrUnexpectedEOF
		}
		label := strings.TrimSpace(scanner.Text())
		if !q.HasOption(label) {
			fmt.Fprintln(out, "Pick one of the listed letters.")
			continue
		}
		return ctrl.SubmitAnswer(cmd.Context(), label)
	}
}

func printPoints(cmd *cobra.Command, profiles app.ProfileStore, userID string, out io.Writer) error {
	points, err := profiles.Points(cmd.Context(), userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Total points: %d\n", points)
	return nil
}
