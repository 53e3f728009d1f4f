package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/phrazzld/resumeq/internal/task"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [queue...]",
		Short: "Show queue sizes and lifetime counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			m, err := app.Queue(cmd.Context())
			if err != nil {
				return err
			}

			names := queue.Names
			if len(args) > 0 {
				names = nil
				for _, a := range args {
					q, err := queue.ParseName(a)
					if err != nil {
						return err
					}
					names = append(names, q)
				}
			}

			tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "QUEUE\tREADY\tPROCESSING\tDELAYED\tFAILED\tENQUEUED\tCOMPLETED\tRETRIED\tDEAD")
			for _, q := range names {
				s, err := m.GetQueueStats(cmd.Context(), q)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
					q, s.Ready, s.Processing, s.Delayed, s.Failed,
					s.Enqueued, s.Completed, s.Retried, s.DeadLettered)
			}
			return tw.Flush()
		},
	}
}

func newDLQCmd() *cobra.Command {
	dlq := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect and retry dead-lettered jobs",
	}

	var limit int64
	list := &cobra.Command{
		Use:   "list <queue>",
		Short: "List dead-lettered jobs, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queue.ParseName(args[0])
			if err != nil {
				return err
			}
			app := appFrom(cmd)
			m, err := app.Queue(cmd.Context())
			if err != nil {
				return err
			}

			jobs, err := m.ListFailed(cmd.Context(), q, limit)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintf(app.out, "no failed jobs in %s\n", q)
				return nil
			}

			tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tATTEMPTS\tUPDATED\tERROR")
			for _, j := range jobs {
				fmt.Fprintf(tw, "%s\t%d/%d\t%s\t%s\n",
					j.ID, j.Attempts, j.MaxAttempts, j.UpdatedAt.Format(time.RFC3339), j.LastError)
			}
			return tw.Flush()
		},
	}
	list.Flags().Int64Var(&limit, "limit", 50, "maximum jobs to show (0 for all)")

	retry := &cobra.Command{
		Use:   "retry <queue> <job-id>",
		Short: "Move a dead-lettered job back to the ready list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queue.ParseName(args[0])
			if err != nil {
				return err
			}
			app := appFrom(cmd)
			m, err := app.Queue(cmd.Context())
			if err != nil {
				return err
			}
			job, err := m.RetryFailed(cmd.Context(), args[1], q)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "job %s requeued on %s\n", job.ID, q)
			return nil
		},
	}

	dlq.AddCommand(list, retry)
	return dlq
}

func newEnqueueCmd() *cobra.Command {
	var (
		delay       time.Duration
		maxAttempts int
	)

	cmd := &cobra.Command{
		Use:   "enqueue <queue> <json-payload>",
		Short: "Add a job to a queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queue.ParseName(args[0])
			if err != nil {
				return err
			}
			payload := json.RawMessage(args[1])
			if err := task.ValidatePayload(q, payload); err != nil {
				return err
			}
			if delay < 0 || maxAttempts < 0 {
				return fmt.Errorf("--delay and --max-attempts cannot be negative")
			}

			app := appFrom(cmd)
			m, err := app.Queue(cmd.Context())
			if err != nil {
				return err
			}
			job, err := m.AddJob(cmd.Context(), q, payload, queue.Options{
				MaxAttempts: maxAttempts,
				Delay:       delay,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(app.out, job.ID)
			return nil
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", 0, "make the job visible after this delay")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "attempt ceiling (0 uses the configured default)")
	return cmd
}
