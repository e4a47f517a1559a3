// Package cli is the pdfchat command line. Each invocation drives its own
// workspace against the document service; conversations persist in the
// configured store between runs.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"pdf-chat-client/internal/bootstrap"
	"pdf-chat-client/internal/config"
	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/pkg/workspace"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pdfchat",
	Short: "Chat with your PDF library",
	Long: `pdfchat uploads PDFs to a document question-answering service, tracks
their processing status and keeps a separate conversation per document.`,
	SilenceUsage: true,
}

var (
	ragURL       string
	storeBackend string
	quiet        bool
	downloadDir  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&ragURL, "rag-url", "", "document service base URL (default $RAG_API_URL)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "conversation store: file, bolt, redis or memory (default $STORE_BACKEND)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "hide notifications")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is one workspace opened for the duration of a command.
type session struct {
	cfg *config.Config
	ws  *workspace.Workspace
	log logger.ILogger
	out io.Writer

	closeStore func()
}

func loadConfig() *config.Config {
	cfg := config.Load()
	if ragURL != "" {
		cfg.Rag.BaseURL = ragURL
	}
	if storeBackend != "" {
		cfg.Store.Backend = storeBackend
	}
	if downloadDir != "" {
		cfg.App.DownloadDir = downloadDir
	}
	return cfg
}

func openSession(ctx context.Context, out io.Writer) (*session, error) {
	cfg := loadConfig()
	log := logger.NewIsolatedLogger(cfg.App.LogFilePath)

	rdb := bootstrap.NewRedisClient(redisURLFor(cfg), log)

	store, closeStore, err := bootstrap.NewConversationStore(cfg, rdb, log)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	var notifier workspace.Notifier = workspace.NotifierFunc(func(workspace.Notification) {})
	if !quiet {
		notifier = consoleNotifier{out: os.Stderr}
	}

	ws := bootstrap.NewWorkspace(cfg, store, notifier, log)
	release := func() {
		closeStore()
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	if err := ws.Start(ctx); err != nil {
		release()
		return nil, err
	}

	return &session{
		cfg:        cfg,
		ws:         ws,
		log:        log,
		out:        out,
		closeStore: release,
	}, nil
}

// redisURLFor only dials Redis when the store needs it.
func redisURLFor(cfg *config.Config) string {
	if cfg.Store.Backend != "redis" {
		return ""
	}
	return cfg.App.RedisURL
}

func (s *session) Close() {
	s.ws.Close()
	s.closeStore()
	_ = s.log.Sync()
}

// withSession runs fn with a started workspace bound to an interruptible context.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

type consoleNotifier struct {
	out io.Writer
}

var levelColors = map[workspace.Level]*color.Color{
	workspace.LevelInfo:    color.New(color.FgCyan),
	workspace.LevelSuccess: color.New(color.FgGreen),
	workspace.LevelWarning: color.New(color.FgYellow),
	workspace.LevelError:   color.New(color.FgRed, color.Bold),
}

func (n consoleNotifier) Notify(note workspace.Notification) {
	c, ok := levelColors[note.Level]
	if !ok {
		c = color.New(color.Reset)
	}
	line := c.Sprintf("[%s] %s", note.Level, note.Title)
	if note.Description != "" {
		line += " " + note.Description
	}
	fmt.Fprintln(n.out, line)
}
