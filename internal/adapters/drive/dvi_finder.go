package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/platform/obs"
)

const (
	folderMime = "application/vnd.google-apps.folder"
	pdfMime    = "application/pdf"
)

// DVIFinder locates driver vehicle inspection PDFs laid out as
// ROOT/DEPOT/YYYY-MM/YYYY-MM-DD/<file containing the route>.pdf.
type DVIFinder struct {
	svc     *driveapi.Service
	driveID string
	rootID  string
}

// NewDVIFinder builds a read-only Drive client. driveID may be empty when the
// root folder is not on a shared drive.
func NewDVIFinder(ctx context.Context, driveID, rootFolderID string, opts ...option.ClientOption) (*DVIFinder, error) {
	if rootFolderID == "" {
		return nil, errors.New("dvi finder: root folder id is empty")
	}

	opts = append([]option.ClientOption{option.WithScopes(driveapi.DriveReadonlyScope)}, opts...)
	svc, err := driveapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dvi finder: create drive client: %w", err)
	}

	return &DVIFinder{svc: svc, driveID: driveID, rootID: rootFolderID}, nil
}

func (d *DVIFinder) FindInspection(ctx context.Context, depot, route string, date time.Time) (_ string, err error) {
	defer obs.Time(ctx, "drive.FindInspection")(&err)

	path := []string{strings.ToUpper(strings.TrimSpace(depot)), date.Format("2006-01"), date.Format(time.DateOnly)}

	parent := d.rootID
	for _, name := range path {
		id, err := d.findFolder(ctx, parent, name)
		if err != nil {
			return "", fmt.Errorf("find inspection route=%s: %w", route, err)
		}
		parent = id
	}

	want := strings.ToUpper(strings.TrimSpace(route))
	q := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", escape(parent), pdfMime)

	var link string
	err = d.list(q).Pages(ctx, func(fl *driveapi.FileList) error {
		for _, f := range fl.Files {
			if strings.Contains(strings.ToUpper(f.Name), want) {
				link = f.WebViewLink
				return errStopPaging
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopPaging) {
		return "", fmt.Errorf("find inspection route=%s: list files: %w", route, err)
	}
	if link == "" {
		return "", fmt.Errorf("find inspection route=%s in %s: %w", route, strings.Join(path, "/"), domain.ErrNotFound)
	}

	return link, nil
}

var errStopPaging = errors.New("stop paging")

func (d *DVIFinder) findFolder(ctx context.Context, parent, name string) (string, error) {
	q := fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		escape(parent), escape(name), folderMime)

	fl, err := d.list(q).PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list folder %q: %w", name, err)
	}
	if len(fl.Files) == 0 {
		return "", fmt.Errorf("folder %q: %w", name, domain.ErrNotFound)
	}
	return fl.Files[0].Id, nil
}

func (d *DVIFinder) list(q string) *driveapi.FilesListCall {
	call := d.svc.Files.List().
		Q(q).
		Fields("nextPageToken, files(id, name, webViewLink)").
		OrderBy("name").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)
	if d.driveID != "" {
		call = call.Corpora("drive").DriveId(d.driveID)
	}
	return call
}

// escape quotes a value for a Drive query string literal.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
