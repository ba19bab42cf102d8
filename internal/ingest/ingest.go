package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"compliance/internal/logger"
	"compliance/internal/rules"
	apperrors "compliance/pkg/errors"
)

// Artifact is one uploaded input. Name is used to pick the decoder.
type Artifact struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type Ingestor interface {
	Ingest(ctx context.Context, artifacts []Artifact) (rules.Record, error)
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks a decoder from the file extension, falling back to the
// first non-blank byte of the content.
func DetectFormat(a Artifact) Format {
	switch strings.ToLower(filepath.Ext(a.Name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimSpace(a.Data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

type StructuredIngestor struct {
	logger      logger.Logger
	concurrency int
}

type Option func(*StructuredIngestor)

func WithLogger(log logger.Logger) Option {
	return func(i *StructuredIngestor) {
		i.logger = log
	}
}

func WithConcurrency(n int) Option {
	return func(i *StructuredIngestor) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

func NewStructuredIngestor(opts ...Option) *StructuredIngestor {
	i := &StructuredIngestor{
		logger:      logger.NopLogger(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest decodes every artifact concurrently and merges them in artifact
// order: a key in a later artifact overrides the same key in an earlier one.
func (i *StructuredIngestor) Ingest(ctx context.Context, artifacts []Artifact) (rules.Record, error) {
	if len(artifacts) == 0 {
		return nil, apperrors.ErrIngestion.WithDetail("message", "no artifacts to ingest")
	}

	decoded := make([]rules.Record, len(artifacts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, artifact := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := Decode(artifact)
			if err != nil {
				return err
			}
			decoded[idx] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		i.logger.WarnwCtx(ctx, "Artifact ingestion failed", "artifacts", len(artifacts), "error", err)
		return nil, apperrors.WrapPreserve(err, apperrors.ErrIngestion)
	}

	merged := make(rules.Record)
	for _, rec := range decoded {
		for k, v := range rec {
			merged[k] = v
		}
	}

	i.logger.DebugwCtx(ctx, "Artifacts ingested", "artifacts", len(artifacts), "keys", len(merged))
	return merged, nil
}

// Decode turns one artifact into a record. The top level must be an object.
func Decode(a Artifact) (rules.Record, error) {
	if len(bytes.TrimSpace(a.Data)) == 0 {
		return nil, ingestionError(a, "artifact is empty")
	}

	var raw map[string]interface{}
	switch DetectFormat(a) {
	case FormatJSON:
		if err := json.Unmarshal(a.Data, &raw); err != nil {
			return nil, ingestionError(a, fmt.Sprintf("invalid JSON: %v", err))
		}
	default:
		if err := yaml.Unmarshal(a.Data, &raw); err != nil {
			return nil, ingestionError(a, fmt.Sprintf("invalid YAML: %v", err))
		}
	}

	if raw == nil {
		return nil, ingestionError(a, "artifact does not contain an object")
	}
	return rules.Record(raw), nil
}

func ingestionError(a Artifact, msg string) error {
	return apperrors.ErrIngestion.
		WithDetail("message", fmt.Sprintf("%s: %s", a.Name, msg)).
		WithDetail("artifact", a.Name)
}
