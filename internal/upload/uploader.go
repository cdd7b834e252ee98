package upload

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// Uploader is the narrow interface to the external hosted image service.
// It accepts a raw image file and returns a stable public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
}

// File is one pending upload in a multi-image submission
type File struct {
	Name   string
	Reader io.Reader
}

// UploadAll pushes all files to the uploader concurrently and returns their
// URLs in input order. Any single failure cancels the remaining uploads and
// fails the whole submission, so a product write never receives a partially
// uploaded image list.
func UploadAll(ctx context.Context, uploader Uploader, files []File) ([]string, error) {
	urls := make([]string, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			url, err := uploader.Upload(ctx, f.Name, f.Reader)
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", f.Name, err)
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return urls, nil
}
