package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/events"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// File is one upload candidate.
type File struct {
	Name string
	Data []byte
}

type UploadResult struct {
	Name  string
	DocID string
	Err   error
}

func isRemote(err error) bool {
	return err != nil && !IsValidation(err) && !errors.Is(err, ErrClosed) && !errors.Is(err, ErrNotStarted)
}

// report delivers a notification from outside the loop, keeping notifications ordered.
func (w *Workspace) report(level Level, event, title, description, docID string) {
	_ = w.do(func() { w.notify(level, event, title, description, docID) })
}

// LoadDocuments replaces the collection with the service listing. Uploads still
// in flight keep their entries, as do uploads confirmed after the listing was
// requested. Documents listed as processing are polled.
func (w *Workspace) LoadDocuments(ctx context.Context) error {
	var since uint64
	if err := w.do(func() {
		w.loading = true
		since = w.promotions
	}); err != nil {
		return err
	}

	listing, err := w.remote.ListStatus(ctx)

	var watch []string
	doErr := w.do(func() {
		w.loading = false
		if err != nil {
			w.notify(LevelError, events.DocumentsLoadFailed, "Connection error", "Could not load documents from the server.", "")
			return
		}

		docs := make([]document.Document, 0, len(listing.Documents))
		listed := make(map[string]bool, len(listing.Documents))
		for _, entry := range listing.Documents {
			doc := document.FromEntry(entry)
			if doc.Status == document.StatusProcessing {
				watch = append(watch, doc.ID())
			}
			listed[doc.ID()] = true
			delete(w.promotedAt, doc.ID())
			docs = append(docs, doc)
		}
		for _, d := range w.docs.Items() {
			switch {
			case d.Ref.Pending:
				docs = append(docs, d)
			case !listed[d.ID()] && w.promotedAt[d.ID()] > since:
				docs = append(docs, d)
			}
		}
		w.docs.Reset(docs)

		if len(listing.Documents) == 0 {
			w.notify(LevelInfo, events.DocumentsLoaded, "No documents", "Your library is empty.", "")
		} else {
			w.notify(LevelSuccess, events.DocumentsLoaded, "Documents loaded", fmt.Sprintf("%d documents in your library.", len(listing.Documents)), "")
		}
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		w.logger.Error("Workspace", "Failed to list documents", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("list documents: %w", err)
	}

	for _, id := range watch {
		w.poller.Watch(w.ctx, id)
	}
	w.logger.Info("Workspace", "Documents loaded", map[string]interface{}{
		"count":   len(listing.Documents),
		"polling": len(watch),
	})
	return nil
}

// Upload sends files one after another. Each gets an optimistic entry that is
// promoted in place on success and removed on failure.
func (w *Workspace) Upload(ctx context.Context, files []File) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		id, err := w.uploadOne(ctx, f)
		results = append(results, UploadResult{Name: f.Name, DocID: id, Err: err})
	}
	return results
}

func validatePDF(f File) error {
	if !strings.EqualFold(filepath.Ext(f.Name), ".pdf") {
		return ErrNotPDF
	}
	if len(f.Data) == 0 || !mimetype.Detect(f.Data).Is("application/pdf") {
		return ErrNotPDF
	}
	return nil
}

func (w *Workspace) uploadOne(ctx context.Context, f File) (string, error) {
	if err := validatePDF(f); err != nil {
		w.report(LevelWarning, events.DocumentRejected, "Invalid file", "Please upload PDF files only.", "")
		return "", fmt.Errorf("%s: %w", f.Name, err)
	}

	tempID := "temp-" + uuid.NewString()
	var validationErr error
	err := w.do(func() {
		if w.docs.HasName(f.Name) {
			validationErr = ErrDuplicateName
			w.notify(LevelWarning, events.DocumentRejected, "Duplicate file", f.Name+" is already in your library.", "")
			return
		}
		progress := 0
		_ = w.docs.Add(document.Document{
			Ref:            document.PendingRef(tempID),
			Name:           f.Name,
			Size:           int64(len(f.Data)),
			Status:         document.StatusProcessing,
			UploadedAt:     w.now(),
			UploadProgress: &progress,
		})
	})
	if err != nil {
		return "", err
	}
	if validationErr != nil {
		return "", fmt.Errorf("%s: %w", f.Name, validationErr)
	}

	stopProgress := w.startProgress(tempID)
	resp, err := w.remote.Upload(ctx, f.Name, bytes.NewReader(f.Data))
	stopProgress()
	if err == nil && !resp.Uploaded {
		err = fmt.Errorf("%w: %s", ErrUploadRejected, resp.Message)
	}

	var serverID string
	doErr := w.do(func() {
		if err != nil {
			w.docs.Remove(tempID)
			w.notify(LevelError, events.DocumentUploadFailed, "Upload failed", "Could not upload "+f.Name+".", "")
			return
		}

		serverID = resp.DocId
		if serverID == "" {
			serverID = tempID
		}
		done := 100
		confirmed := document.Document{
			Ref:            document.ConfirmedRef(serverID),
			Name:           f.Name,
			Size:           int64(len(f.Data)),
			Status:         document.StatusProcessing,
			UploadedAt:     w.now(),
			UploadProgress: &done,
		}
		if perr := w.docs.Promote(tempID, confirmed); perr != nil {
			w.logger.Warn("Workspace", "Uploaded document not promoted", map[string]interface{}{
				"temp_id":   tempID,
				"server_id": serverID,
				"reason":    perr.Error(),
			})
		} else {
			w.promotions++
			w.promotedAt[serverID] = w.promotions
		}
		w.notify(LevelSuccess, events.DocumentUploaded, "File uploaded", f.Name+" is being processed.", serverID)
	})
	if doErr != nil {
		return "", doErr
	}
	if err != nil {
		w.logger.Error("Workspace", "Upload failed", map[string]interface{}{
			"file":  f.Name,
			"error": err.Error(),
		})
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}

	if resp.DocId != "" {
		w.poller.Watch(w.ctx, resp.DocId)
	}
	return serverID, nil
}

// startProgress advances the pending entry's progress until the returned stop
// func is called. stop waits for the ticking goroutine to exit.
func (w *Workspace) startProgress(tempID string) func() {
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.cfg.ProgressTick)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				w.post(func() {
					w.docs.Update(tempID, func(d *document.Document) {
						if !d.Ref.Pending || d.UploadProgress == nil {
							return
						}
						next := min(*d.UploadProgress+w.cfg.ProgressStep, w.cfg.ProgressCap)
						d.UploadProgress = &next
					})
				})
			}
		}
	}()
	return func() {
		close(quit)
		wg.Wait()
	}
}

// onStatusUpdate is the poller sink. It runs on a poller goroutine.
func (w *Workspace) onStatusUpdate(u document.StatusUpdate) {
	w.post(func() {
		found := w.docs.Update(u.DocID, func(d *document.Document) {
			d.Status = u.Status
			pages := u.Chunks
			d.Pages = &pages
			d.UploadProgress = nil
		})
		if !found {
			return
		}

		name := u.Filename
		if name == "" {
			name = u.DocID
		}
		if u.Status == document.StatusReady {
			w.notify(LevelSuccess, events.DocumentReady, "Document ready", name+" is ready to use.", u.DocID)
		} else {
			w.notify(LevelError, events.DocumentFailed, "Processing failed", "Could not process "+name+".", u.DocID)
		}
	})
}

func (w *Workspace) confirmedDocument(id string) (document.Document, error) {
	var (
		doc  document.Document
		vErr error
	)
	err := w.do(func() {
		d, ok := w.docs.Find(id)
		switch {
		case !ok:
			vErr = ErrUnknownDocument
		case d.Ref.Pending:
			vErr = ErrDocumentPending
		default:
			doc = d
		}
	})
	if err != nil {
		return document.Document{}, err
	}
	return doc, vErr
}

// Delete removes one document on the service and, once confirmed, from the
// collection and the conversation store. A failed delete leaves the entry.
func (w *Workspace) Delete(ctx context.Context, id string) error {
	if _, err := w.confirmedDocument(id); err != nil {
		return err
	}

	resp, err := w.remote.DeleteOne(ctx, id)
	if err == nil && !resp.Deleted {
		err = ErrNotDeleted
	}

	doErr := w.do(func() {
		if err != nil {
			w.notify(LevelError, events.DocumentDeleteFailed, "Delete failed", "Could not delete the document.", id)
			return
		}
		w.docs.Remove(id)
		delete(w.promotedAt, id)
		w.reconciler.DocumentDeleted(id)
		w.notify(LevelSuccess, events.DocumentDeleted, "Document deleted", "The document and its history were removed.", id)
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		w.logger.Error("Workspace", "Delete failed", map[string]interface{}{
			"doc_id": id,
			"error":  err.Error(),
		})
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// DeleteAll deletes every confirmed document concurrently. On full success the
// conversation store is cleared; on any failure the documents that did go are
// dropped locally and the list is reloaded from the service.
func (w *Workspace) DeleteAll(ctx context.Context) error {
	var ids []string
	if err := w.do(func() {
		for _, d := range w.docs.Items() {
			if !d.Ref.Pending {
				ids = append(ids, d.ID())
			}
		}
	}); err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		deleted []string
	)
	g := new(errgroup.Group)
	g.SetLimit(w.cfg.DeleteConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			resp, err := w.remote.DeleteOne(ctx, id)
			if err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			if !resp.Deleted {
				return fmt.Errorf("delete %s: %w", id, ErrNotDeleted)
			}
			mu.Lock()
			deleted = append(deleted, id)
			mu.Unlock()
			return nil
		})
	}
	groupErr := g.Wait()

	doErr := w.do(func() {
		for _, id := range deleted {
			w.docs.Remove(id)
			delete(w.promotedAt, id)
		}
		if groupErr == nil {
			w.reconciler.ClearAll()
			w.notify(LevelSuccess, events.DocumentsCleared, "All documents deleted", "Your library and all history were cleared.", "")
			return
		}
		for _, id := range deleted {
			w.reconciler.DocumentDeleted(id)
		}
		w.notify(LevelError, events.DocumentDeleteFailed, "Delete failed", "Some documents could not be deleted.", "")
	})
	if doErr != nil {
		return doErr
	}
	if groupErr == nil {
		return nil
	}

	w.logger.Error("Workspace", "Bulk delete failed, reloading", map[string]interface{}{
		"requested": len(ids),
		"deleted":   len(deleted),
		"error":     groupErr.Error(),
	})
	if err := w.LoadDocuments(ctx); err != nil && !isRemote(err) {
		return err
	}
	return fmt.Errorf("delete all documents: %w", groupErr)
}

// Download saves the original file under its name in the download directory
// and returns the path written. Nothing is left behind on failure.
func (w *Workspace) Download(ctx context.Context, id string) (string, error) {
	doc, err := w.confirmedDocument(id)
	if err != nil {
		return "", err
	}

	name := filepath.Base(doc.Name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = id + ".pdf"
	}

	path, err := w.saveDownload(ctx, id, name)
	if err != nil {
		w.report(LevelError, events.DownloadFailed, "Download failed", "Could not download the file.", id)
		w.logger.Error("Workspace", "Download failed", map[string]interface{}{
			"doc_id": id,
			"error":  err.Error(),
		})
		return "", fmt.Errorf("download %s: %w", id, err)
	}

	w.report(LevelSuccess, events.DocumentDownloaded, "Download complete", name+" was downloaded.", id)
	return path, nil
}

func (w *Workspace) saveDownload(ctx context.Context, id, name string) (string, error) {
	if err := os.MkdirAll(w.cfg.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	target := filepath.Join(w.cfg.DownloadDir, name)

	tmp, err := os.CreateTemp(w.cfg.DownloadDir, name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = w.remote.Download(ctx, id, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, target)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	return target, nil
}
