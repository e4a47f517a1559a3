package workspace

import "errors"

var (
	ErrNotStarted = errors.New("workspace not started")
	ErrClosed     = errors.New("workspace closed")

	// Validation failures. Nothing is sent and no state changes.
	ErrNotPDF           = errors.New("only PDF files can be uploaded")
	ErrDuplicateName    = errors.New("a document with this name is already in the library")
	ErrEmptyQuestion    = errors.New("question is empty")
	ErrNoReadyDocuments = errors.New("no document is ready to be asked about")
	ErrUnknownDocument  = errors.New("unknown document")
	ErrDocumentPending  = errors.New("document is still uploading")

	// The service answered 2xx but reported that it did nothing.
	ErrUploadRejected = errors.New("upload rejected by the document service")
	ErrNotDeleted     = errors.New("document service did not delete the document")
)

// IsValidation reports whether err was raised before any remote call.
func IsValidation(err error) bool {
	for _, target := range []error{ErrNotPDF, ErrDuplicateName, ErrEmptyQuestion, ErrNoReadyDocuments, ErrUnknownDocument, ErrDocumentPending} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
