package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// withTempFile writes data to a uniquely named temporary file, invokes fn
// with its path, and removes the file on every exit path. Callers must not
// retain the path after fn returns.
func withTempFile(data []byte, ext string, fn func(path string) error) error {
	if ext == "" {
		ext = ".bin"
	}

	f, err := os.CreateTemp("", "cortex-extract-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return fn(path)
}

// ExecDeckConverter shells out to a converter binary that accepts a file
// path and writes plain text to stdout.
type ExecDeckConverter struct {
	Command string
	Args    []string
}

// ConvertFile implements DeckConverter.
func (c *ExecDeckConverter) ConvertFile(ctx context.Context, path string) (string, error) {
	if c.Command == "" {
		return "", fmt.Errorf("converter command not configured")
	}

	args := append(append([]string{}, c.Args...), path)
	cmd := exec.CommandContext(ctx, c.Command, args...)

	var out strings.Builder
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("converter %s failed: %w", c.Command, err)
	}

	return out.String(), nil
}
