package sidecar

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sinkFactories builds each local Sink implementation for the shared tests.
func sinkFactories(t *testing.T) map[string]Sink {
	t.Helper()

	fsSink, err := NewFileSystemSink("local", filepath.Join(t.TempDir(), "sidecars"))
	if err != nil {
		t.Fatalf("NewFileSystemSink() error = %v", err)
	}
	return map[string]Sink{
		"memory":     NewMemorySink("test"),
		"filesystem": fsSink,
		"s3":         NewS3Sink("remote", "photos", "xmp", newFakeS3()),
	}
}

func TestSink_PutGet(t *testing.T) {
	ctx := context.Background()
	for name, sink := range sinkFactories(t) {
		t.Run(name, func(t *testing.T) {
			content := []byte("<x:xmpmeta/>")
			if err := sink.Put(ctx, "abc.xmp", bytes.NewReader(content), int64(len(content))); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			var buf bytes.Buffer
			if err := sink.Get(ctx, "abc.xmp", &buf); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if buf.String() != string(content) {
				t.Errorf("Get() = %q, want %q", buf.String(), content)
			}

			// Overwrite replaces content.
			updated := []byte("<x:xmpmeta a='1'/>")
			if err := sink.Put(ctx, "abc.xmp", bytes.NewReader(updated), int64(len(updated))); err != nil {
				t.Fatalf("second Put() error = %v", err)
			}
			buf.Reset()
			if err := sink.Get(ctx, "abc.xmp", &buf); err != nil {
				t.Fatalf("Get() after overwrite error = %v", err)
			}
			if buf.String() != string(updated) {
				t.Errorf("Get() after overwrite = %q, want %q", buf.String(), updated)
			}
		})
	}
}

func TestSink_GetMissing(t *testing.T) {
	ctx := context.Background()
	for name, sink := range sinkFactories(t) {
		t.Run(name, func(t *testing.T) {
			err := sink.Get(ctx, "missing.xmp", &bytes.Buffer{})
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSink_ValidateSetup(t *testing.T) {
	ctx := context.Background()
	for name, sink := range sinkFactories(t) {
		t.Run(name, func(t *testing.T) {
			if err := sink.ValidateSetup(ctx); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}

func TestMemorySink_SizeMismatch(t *testing.T) {
	sink := NewMemorySink("test")
	err := sink.Put(context.Background(), "a.xmp", strings.NewReader("abc"), 5)
	if err == nil {
		t.Fatal("Put() expected size mismatch error")
	}
	if len(sink.Names()) != 0 {
		t.Errorf("Names() = %v, want empty after failed Put", sink.Names())
	}
}

func TestFileSystemSink(t *testing.T) {
	ctx := context.Background()

	t.Run("writes named file below root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "out")
		sink, err := NewFileSystemSink("local", root)
		if err != nil {
			t.Fatalf("NewFileSystemSink() error = %v", err)
		}
		if err := sink.Put(ctx, "v1.xmp", strings.NewReader("xmp"), 3); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		data, err := os.ReadFile(filepath.Join(root, "v1.xmp"))
		if err != nil {
			t.Fatalf("reading sidecar: %v", err)
		}
		if string(data) != "xmp" {
			t.Errorf("sidecar = %q, want xmp", data)
		}
	})

	t.Run("size mismatch leaves no file", func(t *testing.T) {
		root := t.TempDir()
		sink, _ := NewFileSystemSink("local", root)
		if err := sink.Put(ctx, "v1.xmp", strings.NewReader("xmp"), 10); err == nil {
			t.Fatal("Put() expected size mismatch error")
		}
		entries, _ := os.ReadDir(root)
		if len(entries) != 0 {
			t.Errorf("root has %d entries, want 0", len(entries))
		}
	})

	t.Run("rejects names escaping root", func(t *testing.T) {
		sink, _ := NewFileSystemSink("local", t.TempDir())
		for _, name := range []string{"", "..", "../x.xmp", "a/b.xmp"} {
			if err := sink.Put(ctx, name, strings.NewReader(""), 0); err == nil {
				t.Errorf("Put(%q) expected error", name)
			}
		}
	})

	t.Run("validate fails when root removed", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "gone")
		sink, _ := NewFileSystemSink("local", root)
		os.RemoveAll(root)
		if err := sink.ValidateSetup(ctx); err == nil {
			t.Error("ValidateSetup() expected error")
		}
	})
}

func TestS3Sink_KeyPrefix(t *testing.T) {
	client := newFakeS3()
	sink := NewS3Sink("remote", "photos", "aperture/xmp", client)

	if err := sink.Put(context.Background(), "v1.xmp", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := client.objects["photos/aperture/xmp/v1.xmp"]; !ok {
		t.Errorf("objects = %v, want key aperture/xmp/v1.xmp in bucket photos", client.keys())
	}
	if ct := client.contentTypes["photos/aperture/xmp/v1.xmp"]; ct != xmpContentType {
		t.Errorf("content type = %q, want %q", ct, xmpContentType)
	}
}

func TestS3Sink_ValidateSetupMissingBucket(t *testing.T) {
	sink := NewS3Sink("remote", "absent", "", newFakeS3())
	if err := sink.ValidateSetup(context.Background()); err == nil {
		t.Error("ValidateSetup() expected error for missing bucket")
	}
}
