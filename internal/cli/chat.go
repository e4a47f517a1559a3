package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pdf-chat-client/pkg/conversation"
	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/workspace"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	userLabel = color.New(color.FgBlue, color.Bold).SprintFunc()
	aiLabel   = color.New(color.FgMagenta, color.Bold).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
)

func renderMessage(out io.Writer, m conversation.ChatMessage) {
	label := userLabel("you")
	if m.Type == conversation.MessageTypeAI {
		label = aiLabel("ai ")
	}
	fmt.Fprintf(out, "%s %s %s\n", dim(m.Timestamp.Local().Format("15:04")), label, m.Content)
}

func renderTranscript(out io.Writer, msgs []conversation.ChatMessage) {
	if len(msgs) == 0 {
		fmt.Fprintln(out, dim("(no messages yet)"))
		return
	}
	for _, m := range msgs {
		renderMessage(out, m)
	}
}

// ask sends question and prints the reply. The apology reply of a failed ask
// is printed too; the error is returned for the exit status.
func ask(ctx context.Context, s *session, question string) error {
	reply, err := s.ws.Send(ctx, question)
	if reply.Id != "" {
		renderMessage(s.out, reply)
	}
	return err
}

func init() {
	var scope string
	askCmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask one question about a document or the whole library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if _, err := s.ws.SelectScope(scope); err != nil {
					return err
				}
				return ask(ctx, s, strings.Join(args, " "))
			})
		},
	}
	askCmd.Flags().StringVar(&scope, "doc", conversation.AllDocuments, "document id to ask about")
	rootCmd.AddCommand(askCmd)

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		Long: `Interactive chat. Lines are sent as questions; commands start with a slash:
  /docs          list documents
  /use ID|all    switch the conversation scope
  /history       print the current transcript
  /clear         clear the current conversation
  /reload        reload documents from the service
  /quit          leave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return repl(ctx, s, cmd.InOrStdin())
			})
		},
	}
	rootCmd.AddCommand(chatCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear stored conversations",
	}
	historyCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show conversation storage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				stats := s.ws.HistoryStats()
				fmt.Fprintf(s.out, "conversations: %d\nmessages:      %d\n", stats.ConversationCount, stats.TotalMessages)
				if !stats.LastUpdated.IsZero() {
					fmt.Fprintf(s.out, "last updated:  %s\n", stats.LastUpdated.Local().Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	})
	var showScope string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if _, err := s.ws.SelectScope(showScope); err != nil {
					return err
				}
				snap, err := s.ws.Snapshot(document.Query{})
				if err != nil {
					return err
				}
				renderTranscript(s.out, snap.Transcript)
				return nil
			})
		},
	}
	showCmd.Flags().StringVar(&showScope, "doc", conversation.AllDocuments, "document id")
	historyCmd.AddCommand(showCmd)
	historyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return s.ws.ClearHistory()
			})
		},
	})
	rootCmd.AddCommand(historyCmd)
}

func prompt(out io.Writer, s *session) {
	snap, err := s.ws.Snapshot(document.Query{})
	label := conversation.AllDocumentsName
	if err == nil && snap.ActiveScope != conversation.AllDocuments {
		label = snap.ActiveScope
		if d, err := s.ws.Document(snap.ActiveScope); err == nil {
			label = d.Name
		}
	}
	fmt.Fprintf(out, "%s> ", color.CyanString(label))
}

func repl(ctx context.Context, s *session, in io.Reader) error {
	snap, err := s.ws.Snapshot(document.Query{})
	if err != nil {
		return err
	}
	renderTranscript(s.out, snap.Transcript)

	scanner := bufio.NewScanner(in)
	for {
		prompt(s.out, s)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := ask(ctx, s, line); err != nil && workspace.IsValidation(err) {
				fmt.Fprintln(s.out, color.YellowString(err.Error()))
			}
			continue
		}

		quit, err := runCommand(ctx, s, line)
		if err != nil {
			fmt.Fprintln(s.out, color.RedString(err.Error()))
		}
		if quit {
			return nil
		}
	}
}

func runCommand(ctx context.Context, s *session, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/docs":
		snap, err := s.ws.Snapshot(document.Query{})
		if err != nil {
			return false, err
		}
		renderDocuments(s.out, snap.Documents)
	case "/use":
		if len(fields) != 2 {
			return false, errors.New("usage: /use ID|all")
		}
		changed, err := s.ws.SelectScope(fields[1])
		if err != nil {
			return false, err
		}
		if changed {
			snap, err := s.ws.Snapshot(document.Query{})
			if err != nil {
				return false, err
			}
			renderTranscript(s.out, snap.Transcript)
		}
	case "/history":
		snap, err := s.ws.Snapshot(document.Query{})
		if err != nil {
			return false, err
		}
		renderTranscript(s.out, snap.Transcript)
	case "/clear":
		return false, s.ws.ClearChat()
	case "/reload":
		return false, s.ws.LoadDocuments(ctx)
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}
