package sidecar

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileSystemSink writes sidecars as files directly below root.
type FileSystemSink struct {
	name string
	root string
}

// NewFileSystemSink creates the sink, creating root if needed.
func NewFileSystemSink(name, root string) (*FileSystemSink, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sidecar directory: %w", err)
	}
	return &FileSystemSink{name: name, root: root}, nil
}

func (s *FileSystemSink) Name() string { return s.name }

// Root returns the directory sidecars are written to.
func (s *FileSystemSink) Root() string { return s.root }

// Put writes r atomically (temp file + rename) to root/name.
func (s *FileSystemSink) Put(_ context.Context, name string, r io.Reader, size int64) error {
	destPath, err := s.pathFor(name)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

func (s *FileSystemSink) Get(_ context.Context, name string, w io.Writer) error {
	srcPath, err := s.pathFor(name)
	if err != nil {
		return err
	}
	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}

// ValidateSetup verifies that root exists and is a directory.
func (s *FileSystemSink) ValidateSetup(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("sidecar root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sidecar root is not a directory: %s", s.root)
	}
	return nil
}

// pathFor rejects names that would escape root.
func (s *FileSystemSink) pathFor(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid sidecar name %q", name)
	}
	return filepath.Join(s.root, name), nil
}

var _ Sink = (*FileSystemSink)(nil)
