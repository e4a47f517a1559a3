package document

import (
	"errors"
	"time"

	"pdf-chat-client/pkg/ragclient"
)

type Status string

const (
	StatusProcessing Status = ragclient.StatusProcessing
	StatusReady      Status = ragclient.StatusReady
	StatusFailed     Status = ragclient.StatusFailed
)

// ParseStatus maps a service status onto Status; unknown values read as processing.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusReady, StatusFailed:
		return Status(raw)
	default:
		return StatusProcessing
	}
}

// Ref identifies a document either by the temporary local id assigned on upload
// or by the id the service confirmed.
type Ref struct {
	ID      string `json:"id"`
	Pending bool   `json:"pending"`
}

func PendingRef(localID string) Ref    { return Ref{ID: localID, Pending: true} }
func ConfirmedRef(serverID string) Ref { return Ref{ID: serverID} }

type Document struct {
	Ref        Ref
	Name       string
	Size       int64
	Status     Status
	UploadedAt time.Time
	Pages      *int
	// UploadProgress is only set while the client is still sending the file.
	UploadProgress *int
}

func (d Document) ID() string { return d.Ref.ID }

// FromEntry converts a status listing entry into a confirmed Document.
func FromEntry(e ragclient.DocumentEntry) Document {
	return Document{
		Ref:        ConfirmedRef(e.DocId),
		Name:       e.Filename,
		Size:       e.Size,
		Status:     ParseStatus(e.Status),
		UploadedAt: parseUploadedAt(e.UploadedAt),
		Pages:      e.Pages,
	}
}

// The service writes naive ISO timestamps (no zone), which RFC3339 rejects.
var uploadedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseUploadedAt(raw string) time.Time {
	for _, layout := range uploadedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

var (
	ErrDuplicateID = errors.New("document id already present")
	ErrNotFound    = errors.New("document not found")
	ErrNotPending  = errors.New("document is not pending")
	ErrIDInUse     = errors.New("server id already belongs to another document")
)

// Collection is the ordered in-memory document list. Ids are unique at all times.
// Not safe for concurrent use.
type Collection struct {
	items []Document
}

func NewCollection() *Collection {
	return &Collection{}
}

func (c *Collection) index(id string) int {
	for i := range c.items {
		if c.items[i].Ref.ID == id {
			return i
		}
	}
	return -1
}

// Items returns a copy in list order.
func (c *Collection) Items() []Document {
	out := make([]Document, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection) Len() int { return len(c.items) }

func (c *Collection) Find(id string) (Document, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return Document{}, false
}

// HasName reports whether a document with exactly this file name is listed.
func (c *Collection) HasName(name string) bool {
	for _, d := range c.items {
		if d.Name == name {
			return true
		}
	}
	return false
}

func (c *Collection) Add(doc Document) error {
	if c.index(doc.Ref.ID) >= 0 {
		return ErrDuplicateID
	}
	c.items = append(c.items, doc)
	return nil
}

// Update applies fn to the entry with id in place, leaving every other entry untouched.
func (c *Collection) Update(id string, fn func(*Document)) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	fn(&c.items[i])
	return true
}

// Promote swaps a pending entry for its confirmed version at the same position.
// When serverID already belongs to another entry the pending one is dropped
// instead, so the list never holds the same id twice.
func (c *Collection) Promote(localID string, confirmed Document) error {
	i := c.index(localID)
	if i < 0 {
		return ErrNotFound
	}
	if !c.items[i].Ref.Pending {
		return ErrNotPending
	}
	if confirmed.Ref.ID != localID && c.index(confirmed.Ref.ID) >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return ErrIDInUse
	}
	c.items[i] = confirmed
	return nil
}

func (c *Collection) Remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// Reset replaces the whole list, dropping later duplicates of an id.
func (c *Collection) Reset(docs []Document) {
	c.items = make([]Document, 0, len(docs))
	for _, d := range docs {
		if c.index(d.Ref.ID) < 0 {
			c.items = append(c.items, d)
		}
	}
}

func (c *Collection) Clear() {
	c.items = nil
}

// Ready returns the documents that can be asked about.
func Ready(docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if d.Status == StatusReady {
			out = append(out, d)
		}
	}
	return out
}
