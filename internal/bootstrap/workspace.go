package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pdf-chat-client/internal/config"
	"pdf-chat-client/internal/metrics"
	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/pkg/conversation"
	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/ragclient"
	"pdf-chat-client/pkg/workspace"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pdfchat:"

// NewRedisClient returns nil when url is empty or the server does not answer.
func NewRedisClient(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Bootstrap", "Redis unavailable", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// NewConversationStore opens the backend named by STORE_BACKEND. The returned
// func releases it.
func NewConversationStore(cfg *config.Config, rdb *redis.Client, log logger.ILogger) (*conversation.Store, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case "", "file":
		backend, err := conversation.NewFileBackend(cfg.Store.Path)
		if err != nil {
			return nil, noop, err
		}
		return conversation.NewStore(backend, log), noop, nil
	case "bolt":
		if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
			return nil, noop, fmt.Errorf("create store directory: %w", err)
		}
		backend, err := conversation.NewBoltBackend(filepath.Join(cfg.Store.Path, "conversations.db"))
		if err != nil {
			return nil, noop, err
		}
		return conversation.NewStore(backend, log), func() { _ = backend.Close() }, nil
	case "redis":
		if rdb == nil {
			return nil, noop, fmt.Errorf("store backend redis: redis is not reachable at %q", cfg.App.RedisURL)
		}
		return conversation.NewStore(conversation.NewRedisBackend(rdb, redisKeyPrefix), log), noop, nil
	case "memory":
		return conversation.NewStore(conversation.NewMemoryBackend(), log), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func WorkspaceConfig(cfg *config.Config) workspace.Config {
	wcfg := workspace.DefaultConfig()
	wcfg.Poller = document.PollerConfig{
		InitialDelay: cfg.Poll.InitialDelay,
		Interval:     cfg.Poll.Interval,
		MaxAttempts:  cfg.Poll.MaxAttempts,
	}
	wcfg.DownloadDir = cfg.App.DownloadDir
	return wcfg
}

// NewWorkspace builds an unstarted workspace talking to the configured
// document service.
func NewWorkspace(cfg *config.Config, store *conversation.Store, notifier workspace.Notifier, log logger.ILogger) *workspace.Workspace {
	remote := metrics.NewInstrumentedRemote(ragclient.NewClient(cfg.Rag.BaseURL, cfg.Rag.Timeout))
	return workspace.New(remote, store, notifier, WorkspaceConfig(cfg), log)
}
