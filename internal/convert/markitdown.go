// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/yitzshapiro/synthetic-data-generator/internal/container"
)

// MarkitdownImage is the container image used for PDF conversion.
const MarkitdownImage = "markitdown:latest"

// MarkitdownConverter pipes a PDF through the markitdown container image and
// returns the Markdown it prints.
type MarkitdownConverter struct {
	runtime container.Runtime
}

// NewMarkitdownConverter fails when the image is not present locally.
func NewMarkitdownConverter(rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(MarkitdownImage); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

func (m *MarkitdownConverter) Convert(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, MarkitdownImage, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", path, err)
	}
	return out.String(), nil
}
