package conversation

import (
	"pdf-chat-client/internal/pkg/logger"
)

// Persister is the part of Store the Reconciler depends on.
type Persister interface {
	Load(scopeKey string) []ChatMessage
	Save(scopeKey string, messages []ChatMessage, displayName string)
	Delete(scopeKey string)
	ClearAll()
}

// NameResolver returns the display name stored alongside a scope's transcript.
type NameResolver func(scopeKey string) string

// Phase gates auto-flush. Transcript changes made while Loading are never saved.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "idle"
	}
}

// Reconciler tracks which scope owns the in-memory transcript and decides when it
// is written to the store. It is not safe for concurrent use; callers serialize
// every transition on one goroutine.
//
// owner and active only differ inside Switch. Field updates within each
// transition happen in a fixed order: flush under the old owner, move active,
// load, then hand ownership to the new scope.
type Reconciler struct {
	store      Persister
	nameOf     NameResolver
	logger     logger.ILogger
	phase      Phase
	active     string
	owner      string
	transcript []ChatMessage
}

func NewReconciler(store Persister, nameOf NameResolver, log logger.ILogger) *Reconciler {
	if nameOf == nil {
		nameOf = func(string) string { return "" }
	}
	return &Reconciler{
		store:      store,
		nameOf:     nameOf,
		logger:     log,
		phase:      PhaseIdle,
		active:     AllDocuments,
		owner:      AllDocuments,
		transcript: []ChatMessage{},
	}
}

func (r *Reconciler) Active() string { return r.active }
func (r *Reconciler) Owner() string  { return r.owner }
func (r *Reconciler) Phase() Phase   { return r.phase }

// Transcript returns a copy of the in-memory transcript.
func (r *Reconciler) Transcript() []ChatMessage {
	return cloneMessages(r.transcript)
}

// Initialize loads the AllDocuments transcript. The load is never flushed back.
func (r *Reconciler) Initialize() {
	r.active = AllDocuments
	r.load(AllDocuments)
}

// Append adds a message to the active transcript and reaffirms ownership.
func (r *Reconciler) Append(msg ChatMessage) {
	r.transcript = append(r.transcript, msg)
	r.owner = r.active
	r.transcriptChanged()
}

// AppendTo adds msg to the transcript of scopeKey, which was captured when the
// exchange started. If the user has since moved to another scope the message
// goes straight into the stored transcript of scopeKey instead of the one on screen.
func (r *Reconciler) AppendTo(scopeKey string, msg ChatMessage) {
	if scopeKey == r.active {
		r.Append(msg)
		return
	}

	messages := r.store.Load(scopeKey)
	messages = append(messages, msg)
	r.store.Save(scopeKey, messages, r.nameOf(scopeKey))
	r.logger.Debug("Reconciler", "Reply stored under its original scope", map[string]interface{}{
		"scope_key": scopeKey,
		"active":    r.active,
	})
}

// Switch moves the active scope to requested. It reports false when requested is
// already active, in which case nothing is flushed or loaded.
func (r *Reconciler) Switch(requested string) bool {
	if requested == r.active {
		return false
	}

	if len(r.transcript) > 0 && r.phase != PhaseLoading {
		r.store.Save(r.owner, r.Transcript(), r.nameOf(r.owner))
		r.logger.Debug("Reconciler", "Flushed transcript before switching scope", map[string]interface{}{
			"owner":     r.owner,
			"requested": requested,
			"messages":  len(r.transcript),
		})
	}

	r.active = requested
	r.load(requested)
	return true
}

// ClearCurrent empties the transcript and deletes the active scope's record.
func (r *Reconciler) ClearCurrent() {
	r.transcript = []ChatMessage{}
	r.owner = r.active
	r.store.Delete(r.active)
}

// ClearAll empties the transcript and every stored record.
func (r *Reconciler) ClearAll() {
	r.transcript = []ChatMessage{}
	r.owner = r.active
	r.store.ClearAll()
}

// DocumentDeleted drops the messages tagged with docID and its stored record,
// whether or not docID is the active scope.
func (r *Reconciler) DocumentDeleted(docID string) {
	kept := make([]ChatMessage, 0, len(r.transcript))
	for _, m := range r.transcript {
		if m.DocumentId != docID {
			kept = append(kept, m)
		}
	}
	changed := len(kept) != len(r.transcript)
	r.transcript = kept
	if changed {
		r.transcriptChanged()
	}
	r.store.Delete(docID)
}

func (r *Reconciler) load(scopeKey string) {
	r.phase = PhaseLoading
	r.transcript = r.store.Load(scopeKey)
	r.transcriptChanged()
	r.owner = scopeKey
	r.phase = PhaseReady
}

// transcriptChanged is the auto-flush rule.
func (r *Reconciler) transcriptChanged() {
	if r.phase != PhaseReady {
		return
	}
	if len(r.transcript) == 0 {
		return
	}
	if r.active != r.owner {
		return
	}
	r.store.Save(r.active, r.Transcript(), r.nameOf(r.active))
}
