package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sampleapps/pkg/mq"
	"sampleapps/pkg/outbox"
)

func newOutboxCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and replay outbox events",
	}

	var limit int
	listFailed := &cobra.Command{
		Use:   "list-failed",
		Short: "List events that exhausted their retries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReplayer(opts, func(r *outbox.ReplayService) error {
				events, err := r.FailedEvents(cmd.Context(), limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tROUTING KEY\tRETRIES\tUPDATED")
				for _, e := range events {
					fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", e.ID, e.RoutingKey, e.RetryCount, e.UpdatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
	listFailed.Flags().IntVar(&limit, "limit", 50, "max events")

	var id int64
	replay := &cobra.Command{
		Use:   "replay",
		Short: "Republish one event by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id <= 0 {
				return errors.New("--id is required")
			}
			return withReplayer(opts, func(r *outbox.ReplayService) error {
				if err := r.ReplayEvent(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "event %d replayed\n", id)
				return nil
			})
		},
	}
	replay.Flags().Int64Var(&id, "id", 0, "outbox event id")

	var batch int
	replayFailed := &cobra.Command{
		Use:   "replay-failed",
		Short: "Republish failed events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReplayer(opts, func(r *outbox.ReplayService) error {
				n, err := r.ReplayFailedEvents(cmd.Context(), batch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d events replayed\n", n)
				return nil
			})
		},
	}
	replayFailed.Flags().IntVar(&batch, "limit", 100, "max events")

	cmd.AddCommand(listFailed, replay, replayFailed)
	return cmd
}

func withReplayer(opts *rootOptions, fn func(*outbox.ReplayService) error) error {
	s, err := opts.open()
	if err != nil {
		return err
	}
	defer s.Close()

	pub, err := mq.NewPublisher(s.cfg.MQ.URL)
	if err != nil {
		return fmt.Errorf("connect mq: %w", err)
	}
	defer pub.Close()

	return fn(outbox.NewReplayService(outbox.NewRepository(s.pool), pub, s.log))
}
