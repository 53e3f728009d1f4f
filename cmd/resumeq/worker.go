package main

import (
	"fmt"
	"sync"

	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/phrazzld/resumeq/internal/task"
	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	var (
		concurrency int
		queues      []string
		retention   bool
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run queue workers until interrupted",
		Long: "Runs poll loops for the resume-generation and file-deletion queues and,\n" +
			"unless disabled, the periodic retention sweep. Each loop handles one job\n" +
			"at a time; --concurrency starts that many loops per queue.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			ctx := cmd.Context()
			app := appFrom(cmd)

			m, err := app.Queue(ctx)
			if err != nil {
				return err
			}

			var runners []*task.Runner
			for _, name := range queues {
				q, err := queue.ParseName(name)
				if err != nil {
					return err
				}

				var handler task.Handler
				switch q {
				case queue.ResumeGeneration:
					handler, err = app.ResumeGenerationHandler(ctx)
				case queue.FileDeletion:
					handler, err = app.FileDeletionHandler()
				default:
					return fmt.Errorf("queue %s has no worker", q)
				}
				if err != nil {
					return err
				}

				for i := 0; i < concurrency; i++ {
					r, err := task.NewRunner(m, handler, app.RunnerConfig(q), app.logger)
					if err != nil {
						return err
					}
					runners = append(runners, r)
				}
			}

			var wg sync.WaitGroup
			if retention {
				sweeper, err := app.RetentionSweeper(ctx)
				if err != nil {
					return err
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					sweeper.Run(ctx)
				}()
			}

			for _, r := range runners {
				r.Start(ctx)
			}
			app.logger.Info("workers started",
				"queues", queues,
				"concurrency", concurrency,
				"retention", retention)

			<-ctx.Done()
			app.logger.Info("shutting down workers")
			for _, r := range runners {
				r.Stop()
			}
			wg.Wait()
			app.logger.Info("workers stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "poll loops per queue")
	cmd.Flags().StringSliceVar(&queues, "queues",
		[]string{string(queue.ResumeGeneration), string(queue.FileDeletion)},
		"queues to consume")
	cmd.Flags().BoolVar(&retention, "retention", true, "run the periodic retention sweep")
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one retention sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			sweeper, err := app.RetentionSweeper(cmd.Context())
			if err != nil {
				return err
			}
			result, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "expired generations: %d\ndeletion jobs queued: %d\nrecords cleared: %d\n",
				result.Expired, result.JobsEnqueued, result.Cleared)
			return nil
		},
	}
}
