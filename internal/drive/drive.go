// Package drive wraps the Google Drive operations the audit pipeline needs:
// list the PDFs in a folder, download them, and upload the generated artifacts
// into a results subfolder.
package drive

import "context"

// File is the subset of Drive file metadata the pipeline uses.
type File struct {
	ID          string
	Name        string
	MimeType    string
	Size        int64
	WebViewLink string
}

// Client is the Drive access interface. The production implementation talks to
// the Drive v3 API with a service-account key; tests substitute a fake.
type Client interface {
	ListPDFs(ctx context.Context, folderID string) ([]File, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	CreateFolder(ctx context.Context, parentID, name string) (File, error)
	Upload(ctx context.Context, folderID, name, mimeType string, content []byte) (File, error)
}
