package workspace

import (
	"context"
	"fmt"
	"strings"

	"pdf-chat-client/pkg/conversation"
	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/events"
)

const apologyMessage = "Sorry, I could not process your question right now. Please try again."

// SelectScope makes scopeKey the active conversation scope. It reports
// whether the scope actually changed.
func (w *Workspace) SelectScope(scopeKey string) (bool, error) {
	var (
		changed bool
		vErr    error
	)
	err := w.do(func() {
		if scopeKey != conversation.AllDocuments {
			d, ok := w.docs.Find(scopeKey)
			if !ok {
				vErr = ErrUnknownDocument
				return
			}
			if d.Ref.Pending {
				vErr = ErrDocumentPending
				return
			}
		}
		changed = w.reconciler.Switch(scopeKey)
	})
	if err != nil {
		return false, err
	}
	if vErr != nil {
		return false, vErr
	}
	if changed {
		w.logger.Debug("Workspace", "Scope switched", map[string]interface{}{
			"scope_key": scopeKey,
		})
	}
	return changed, nil
}

// Send asks question under the active scope. The scope is captured before the
// request goes out and the reply is stored under it even if the user switched
// away meanwhile. A failed ask still records an apology reply.
func (w *Workspace) Send(ctx context.Context, question string) (conversation.ChatMessage, error) {
	var (
		scope string
		vErr  error
	)
	err := w.do(func() {
		if strings.TrimSpace(question) == "" {
			vErr = ErrEmptyQuestion
			return
		}
		if len(document.Ready(w.docs.Items())) == 0 {
			vErr = ErrNoReadyDocuments
			w.notify(LevelWarning, events.ChatRejected, "No documents ready", "Upload and process at least one PDF before asking questions.", "")
			return
		}
		scope = w.reconciler.Active()
		w.reconciler.Append(conversation.NewMessage(conversation.MessageTypeUser, question, scope, w.now()))
		w.pendingAsks++
	})
	if err != nil {
		return conversation.ChatMessage{}, err
	}
	if vErr != nil {
		return conversation.ChatMessage{}, vErr
	}

	resp, askErr := w.remote.Ask(ctx, question, scope)

	var reply conversation.ChatMessage
	err = w.do(func() {
		w.pendingAsks--
		if askErr != nil {
			reply = conversation.NewMessage(conversation.MessageTypeAI, apologyMessage, scope, w.now())
			w.reconciler.AppendTo(scope, reply)
			w.notify(LevelError, events.ChatFailed, "Chat error", "Could not process your question.", conversation.DocumentIdForScope(scope))
			return
		}
		reply = conversation.NewMessage(conversation.MessageTypeAI, resp.Answer, scope, w.now())
		w.reconciler.AppendTo(scope, reply)
		w.notify(LevelInfo, events.ChatAnswered, "Answer received", "", conversation.DocumentIdForScope(scope))
	})
	if err != nil {
		return reply, err
	}
	if askErr != nil {
		w.logger.Error("Workspace", "Ask failed", map[string]interface{}{
			"scope_key": scope,
			"error":     askErr.Error(),
		})
		return reply, fmt.Errorf("ask: %w", askErr)
	}
	return reply, nil
}

// ClearChat empties the active transcript and forgets its stored record.
func (w *Workspace) ClearChat() error {
	return w.do(func() {
		w.reconciler.ClearCurrent()
		w.notify(LevelSuccess, events.ConversationCleared, "Chat cleared", "The conversation history was deleted.", conversation.DocumentIdForScope(w.reconciler.Active()))
	})
}

// ClearHistory empties the transcript and every stored conversation.
func (w *Workspace) ClearHistory() error {
	return w.do(func() {
		w.reconciler.ClearAll()
		w.notify(LevelSuccess, events.HistoryCleared, "History cleared", "Conversations for every document were deleted.", "")
	})
}
