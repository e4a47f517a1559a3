package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/pkg/events"
	pktNats "pdf-chat-client/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	var durable string
	cmd := &cobra.Command{
		Use:   "events [SUBJECT]",
		Short: "Tail workspace events published by a running server",
		Long: `Tail the event stream on NATS. SUBJECT filters by event type, for
example "document.*"; it defaults to every event.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if cfg.App.NatsURL == "" {
				return errors.New("NATS_URL is not set")
			}
			log := logger.NewIsolatedLogger(cfg.App.LogFilePath)
			defer log.Sync()

			sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, log)
			if err != nil {
				return err
			}
			defer sub.Close()

			subject := pktNats.SubjectPrefix + ">"
			if len(args) == 1 {
				subject = pktNats.SubjectPrefix + args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return sub.Subscribe(ctx, subject, durable, func(ctx context.Context, evt events.Event) error {
				title, _ := evt.Payload()["title"].(string)
				docID, _ := evt.Payload()["document_id"].(string)
				fmt.Fprintf(out, "%s %s %s %s\n",
					dim(evt.Timestamp().Local().Format("15:04:05")),
					color.CyanString(evt.EventType()),
					title,
					dim(docID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&durable, "durable", "", "durable consumer name; empty only shows new events")
	rootCmd.AddCommand(cmd)
}
