package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleClient implements Client against the Drive v3 API.
type GoogleClient struct {
	svc    *gdrive.Service
	logger *slog.Logger
}

// NewGoogleClient authenticates with an inline service-account key. The
// account needs the full drive scope: it must create folders and upload files,
// not just read.
func NewGoogleClient(ctx context.Context, credentialsJSON string, logger *slog.Logger) (*GoogleClient, error) {
	svc, err := gdrive.NewService(ctx,
		option.WithCredentialsJSON([]byte(credentialsJSON)),
		option.WithScopes(gdrive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &GoogleClient{svc: svc, logger: logger}, nil
}

// ListPDFs returns the PDF files directly inside folderID, sorted by name so
// the processing order is deterministic.
func (c *GoogleClient) ListPDFs(ctx context.Context, folderID string) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType='application/pdf' and trashed=false", folderID)

	var files []File
	pageToken := ""
	for {
		call := c.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, size)").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list folder %s: %w", folderID, err)
		}
		for _, f := range res.Files {
			files = append(files, File{ID: f.Id, Name: f.Name, MimeType: f.MimeType, Size: f.Size})
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	c.logger.Debug("listed drive folder", "folder_id", folderID, "pdf_count", len(files))
	return files, nil
}

func (c *GoogleClient) Download(ctx context.Context, fileID string) ([]byte, error) {
	res, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", fileID, err)
	}
	return data, nil
}

func (c *GoogleClient) CreateFolder(ctx context.Context, parentID, name string) (File, error) {
	created, err := c.svc.Files.Create(&gdrive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
		Parents:  []string{parentID},
	}).Fields("id, name, webViewLink").Context(ctx).Do()
	if err != nil {
		return File{}, fmt.Errorf("create folder %q: %w", name, err)
	}
	return File{ID: created.Id, Name: created.Name, WebViewLink: created.WebViewLink}, nil
}

func (c *GoogleClient) Upload(ctx context.Context, folderID, name, mimeType string, content []byte) (File, error) {
	created, err := c.svc.Files.Create(&gdrive.File{
		Name:    name,
		Parents: []string{folderID},
	}).Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id, name, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return File{}, fmt.Errorf("upload %q: %w", name, err)
	}

	c.logger.Info("uploaded artifact", "name", name, "file_id", created.Id, "bytes", len(content))
	return File{ID: created.Id, Name: created.Name, WebViewLink: created.WebViewLink}, nil
}
