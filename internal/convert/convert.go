// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert extracts raw text from input documents, with pluggable
// backends per file type.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yitzshapiro/synthetic-data-generator/internal/container"
	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

// Converter turns one file into plain text. Different backends (native PDF,
// markitdown, Markdown, plain text) implement this interface.
type Converter interface {
	// Convert reads the file at path and returns its text content.
	Convert(ctx context.Context, path string) (string, error)
}

// Registry dispatches conversion by lower-cased file extension.
type Registry struct {
	byExt map[string]Converter
}

// NewRegistry returns a Registry with the given extension mapping.
// Extensions include the leading dot.
func NewRegistry(byExt map[string]Converter) *Registry {
	m := make(map[string]Converter, len(byExt))
	for ext, c := range byExt {
		m[strings.ToLower(ext)] = c
	}
	return &Registry{byExt: m}
}

// New builds the default Registry for .pdf, .txt and .md files. The
// markitdown PDF backend requires a working docker or podman runtime.
func New(cfg types.ConversionConfig) (*Registry, error) {
	var pdf Converter
	switch cfg.PDFBackend {
	case types.PDFNative, "":
		pdf = PDFConverter{}
	case types.PDFMarkitdown:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		mc, err := NewMarkitdownConverter(rt)
		if err != nil {
			return nil, err
		}
		pdf = mc
	default:
		return nil, fmt.Errorf("unsupported PDF backend %q: use native or markitdown", cfg.PDFBackend)
	}

	var md Converter = TextConverter{}
	if cfg.StripMarkdown {
		md = MarkdownConverter{}
	}

	return NewRegistry(map[string]Converter{
		".pdf": pdf,
		".txt": TextConverter{},
		".md":  md,
	}), nil
}

// Supported reports whether path has an extension the registry handles.
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the handled extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Convert extracts text from path with the converter registered for its
// extension.
func (r *Registry) Convert(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type %q for %s", ext, path)
	}
	return c.Convert(ctx, path)
}

// TextConverter reads UTF-8 text files as is.
type TextConverter struct{}

func (TextConverter) Convert(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("reading %s: not valid UTF-8", path)
	}
	return string(data), nil
}
