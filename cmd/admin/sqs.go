package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/sdk"
)

type (
	messageOutput struct {
		ID            string            `yaml:"id"`
		Body          string            `yaml:"body"`
		SentTimestamp time.Time         `yaml:"sent_timestamp"`
		Attributes    map[string]string `yaml:"attributes,omitempty"`
	}
)

var (
	sqsFlags struct {
		max    int
		wait   time.Duration
		delete bool
		count  int
		rps    int
	}

	sqsCmd = &cobra.Command{
		Use:   "sqs",
		Short: "Work with SQS queues.",
	}

	sqsSendCmd = &cobra.Command{
		Use:   "send queue body",
		Short: "Send a message to a queue.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			queue, err := getQueue(app, args[0])
			if err != nil {
				return err
			}

			limiter := rate.NewLimiter(rate.Inf, 1)
			if sqsFlags.rps > 0 {
				limiter = rate.NewLimiter(rate.Limit(sqsFlags.rps), 1)
			}

			for i := 0; i < sqsFlags.count; i++ {
				if err := limiter.Wait(app.Context()); err != nil {
					return xerrors.Errorf("failed to wait for rate limiter: %w", err)
				}

				id, err := queue.SendMessage(app.Context(), args[1], nil)
				if err != nil {
					return xerrors.Errorf("failed to send message to %v: %w", args[0], err)
				}

				logger.Info("sent message", zap.String("queue", queue.Name()), zap.String("id", id))
			}
			return nil
		},
	}

	sqsReceiveCmd = &cobra.Command{
		Use:   "receive queue",
		Short: "Receive messages from a queue.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			queue, err := getQueue(app, args[0])
			if err != nil {
				return err
			}

			messages, err := queue.ReceiveMessages(app.Context(), sqsFlags.max, sqsFlags.wait)
			if err != nil {
				return xerrors.Errorf("failed to receive messages from %v: %w", args[0], err)
			}

			out := make([]*messageOutput, len(messages))
			for i, message := range messages {
				out[i] = &messageOutput{
					ID:            message.ID,
					Body:          message.Body,
					SentTimestamp: message.SentTimestamp,
					Attributes:    message.Attributes,
				}
			}
			if err := printYAML(out); err != nil {
				return err
			}

			if !sqsFlags.delete {
				return nil
			}

			for _, message := range messages {
				if err := message.Delete(app.Context()); err != nil {
					return xerrors.Errorf("failed to delete message %v: %w", message.ID, err)
				}
			}
			return nil
		},
	}

	sqsPurgeCmd = &cobra.Command{
		Use:   "purge queue",
		Short: "Delete every message of a queue.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp()
			if err != nil {
				return err
			}
			defer app.Close()

			queue, err := getQueue(app, args[0])
			if err != nil {
				return err
			}

			prompt := color.CyanString("Are you sure you want to purge ") +
				color.MagentaString(queue.URL()) +
				color.CyanString("? (y/N) ")
			if !confirm(prompt) {
				return nil
			}

			if err := queue.Purge(app.Context()); err != nil {
				return xerrors.Errorf("failed to purge %v: %w", args[0], err)
			}

			logger.Info("purged queue", zap.String("queue", queue.Name()))
			return nil
		},
	}
)

func init() {
	sqsSendCmd.Flags().IntVar(&sqsFlags.count, "count", 1, "number of copies to send")
	sqsSendCmd.Flags().IntVar(&sqsFlags.rps, "rps", 0, "messages per second; 0 means unlimited")
	sqsReceiveCmd.Flags().IntVar(&sqsFlags.max, "max", 1, "maximum number of messages, up to 10")
	sqsReceiveCmd.Flags().DurationVar(&sqsFlags.wait, "wait", 0, "long polling duration, up to 20s")
	sqsReceiveCmd.Flags().BoolVar(&sqsFlags.delete, "delete", false, "delete the messages once printed")

	sqsCmd.AddCommand(sqsSendCmd)
	sqsCmd.AddCommand(sqsReceiveCmd)
	sqsCmd.AddCommand(sqsPurgeCmd)
	rootCmd.AddCommand(sqsCmd)
}

func getQueue(app CmdApp, name string) (*sdk.SQSQueue, error) {
	resource, err := sdk.ResourceAs[*sdk.SQSResource]("sqs")
	if err != nil {
		return nil, xerrors.Errorf("failed to create sqs resource: %w", err)
	}

	queue, err := resource.Queue(app.Context(), name)
	if err != nil {
		return nil, xerrors.Errorf("failed to get queue %v: %w", name, err)
	}

	return queue, nil
}
