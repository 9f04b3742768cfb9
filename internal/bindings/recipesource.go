package bindings

import (
	"context"
	"os"
)

// FileRecipeSource reads a recipe from a path on disk, re-read on every
// Load call so --watch re-runs pick up edits.
type FileRecipeSource struct {
	Path string
}

func (f FileRecipeSource) Load(ctx context.Context) (string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
