package report

import (
	"context"
	"path/filepath"

	apperrors "compliance/pkg/errors"
	"compliance/pkg/fileutil"
)

// Sink delivers an exported document and returns where it ended up.
type Sink interface {
	Write(ctx context.Context, doc Document) (string, error)
}

type DirSink struct {
	dir string
}

func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

func (s *DirSink) Write(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrExport)
	}

	path := filepath.Join(s.dir, filepath.Base(doc.Filename))
	if err := fileutil.WriteFileAtomic(path, doc.Body, 0o644); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrExport.WithDetail("path", path))
	}
	return path, nil
}

// DiscardSink accepts every document without storing it.
type DiscardSink struct{}

func (DiscardSink) Write(ctx context.Context, doc Document) (string, error) {
	return "", nil
}
