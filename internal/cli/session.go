package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/stemsi/submission-portal/internal/model"
)

type identityFlags struct {
	email string
	phone string
}

func (f *identityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "candidate email")
	cmd.Flags().StringVar(&f.phone, "phone", "", "candidate phone number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")
}

// NewCheckCommand creates the check command.
func NewCheckCommand(opts *RootOptions) *cobra.Command {
	var id identityFlags
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether an identity has already attempted the exam",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := opts.client(cmd).Check(cmd.Context(), id.email, id.phone)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, status, func(w io.Writer) {
				if !status.Attempted {
					fmt.Fprintln(w, "No attempt yet.")
					return
				}
				fmt.Fprintf(w, "Attempted: status=%s", *status.Status)
				if status.CanResume != nil && *status.CanResume {
					fmt.Fprintf(w, ", resumable at step %d", *status.CurrentStep)
				}
				fmt.Fprintln(w)
			})
		},
	}
	id.register(cmd)
	return cmd
}

// NewStartCommand creates the start command.
func NewStartCommand(opts *RootOptions) *cobra.Command {
	var id identityFlags
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new attempt or resume the existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client(cmd).Start(cmd.Context(), id.email, id.phone)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) {
				if res.AlreadyCompleted {
					fmt.Fprintln(w, res.Message)
					return
				}
				verb := "Resumed"
				if res.IsNew {
					verb = "Started"
				}
				fmt.Fprintf(w, "%s session %s at step %d\n", verb, res.Session.SessionID, res.Session.CurrentStep)
			})
		},
	}
	id.register(cmd)
	return cmd
}

// NewResumeCommand creates the resume command.
func NewResumeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Show the mirrored session without contacting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, ok, err := opts.client(cmd).Resume(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				if snap != nil {
					return fmt.Errorf("session %s is %s; run ack to clear it", snap.SessionID, snap.Status)
				}
				return fmt.Errorf("no session to resume; run start first")
			}
			return printResult(cmd.OutOrStdout(), opts.Format, snap, func(w io.Writer) {
				fmt.Fprintf(w, "Session %s at step %d\n", snap.SessionID, snap.CurrentStep)
				printFormData(w, snap.FormData)
			})
		},
	}
}

// NewProgressCommand creates the progress command.
func NewProgressCommand(opts *RootOptions) *cobra.Command {
	var (
		step  int
		pairs []string
		raw   string
	)
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Save wizard progress",
		Example: `  portal progress --step 2 --set fullName="Ana Lima" --set role=frontend
  portal progress --step 3 --data '{"mcqAnswers":{"q1":2}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseFormData(pairs, raw)
			if err != nil {
				return err
			}
			c := opts.client(cmd)
			snap, err := c.SaveProgress(cmd.Context(), step, patch)
			if err != nil {
				return err
			}
			// The process is about to exit, so replicate now.
			if err := c.Close(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: saved locally, server not updated: %v\n", err)
			}
			return printResult(cmd.OutOrStdout(), opts.Format, snap, func(w io.Writer) {
				fmt.Fprintf(w, "Saved step %d\n", snap.CurrentStep)
			})
		},
	}
	cmd.Flags().IntVar(&step, "step", model.FirstStep, "current wizard step (1-4)")
	cmd.Flags().StringArrayVar(&pairs, "set", nil, "form field as key=value (repeatable)")
	cmd.Flags().StringVar(&raw, "data", "", "form fields as a JSON object")
	return cmd
}

type scoreFlags struct {
	total   int
	correct int
	percent float64
}

func (f *scoreFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.total, "total", 0, "number of assessment questions")
	cmd.Flags().IntVar(&f.correct, "correct", 0, "number of correct answers")
	cmd.Flags().Float64Var(&f.percent, "percentage", 0, "assessment percentage (0-100)")
}

func (f *scoreFlags) score() model.MCQScore {
	return model.MCQScore{TotalQuestions: f.total, CorrectAnswers: f.correct, Percentage: f.percent}
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(opts *RootOptions) *cobra.Command {
	var (
		sf    scoreFlags
		pairs []string
		raw   string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit the exam for scoring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			final, err := parseFormData(pairs, raw)
			if err != nil {
				return err
			}
			res, err := opts.client(cmd).Submit(cmd.Context(), final, nil, sf.score())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) {
				fmt.Fprintln(w, res.Message)
				if res.SubmissionID != nil {
					fmt.Fprintf(w, "Submission: %s\n", res.SubmissionID)
				}
			})
		},
	}
	sf.register(cmd)
	_ = cmd.MarkFlagRequired("percentage")
	cmd.Flags().StringArrayVar(&pairs, "set", nil, "final form field as key=value (repeatable)")
	cmd.Flags().StringVar(&raw, "data", "", "final form fields as a JSON object")
	return cmd
}

// NewFailCommand creates the fail command.
func NewFailCommand(opts *RootOptions) *cobra.Command {
	var sf scoreFlags
	cmd := &cobra.Command{
		Use:   "fail",
		Short: "Lock the session after a failed assessment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var score *model.MCQScore
			if cmd.Flags().Changed("percentage") {
				s := sf.score()
				score = &s
			}
			res, err := opts.client(cmd).FailAssessment(cmd.Context(), score)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) {
				fmt.Fprintln(w, res.Message)
			})
		},
	}
	sf.register(cmd)
	return cmd
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Replace the local mirror with the server's copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.client(cmd).Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, snap, func(w io.Writer) {
				fmt.Fprintf(w, "Session %s: status=%s step=%d\n", snap.SessionID, snap.Status, snap.CurrentStep)
			})
		},
	}
}

// NewAckCommand creates the ack command.
func NewAckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ack",
		Short: "Clear the mirror of a finished attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client(cmd).Acknowledge(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}
