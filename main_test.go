package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/minilight/go-minilight/pkg/core"
	"github.com/minilight/go-minilight/pkg/renderer"
)

func TestWriteImage(t *testing.T) {
	img := renderer.NewImage(4, 3)
	img.AddToPixel(1, 1, core.NewVec3(0.5, 0.5, 0.5))

	path := filepath.Join(t.TempDir(), "out.ppm")
	if err := writeImage(path, img, 1); err != nil {
		t.Fatalf("writeImage failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("P6\n")) {
		t.Errorf("output is not a PPM: %q", content[:min(len(content), 16)])
	}

	// A later snapshot replaces the file rather than appending
	if err := writeImage(path, img, 2); err != nil {
		t.Fatalf("writeImage failed: %v", err)
	}
	replaced, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}
	if len(replaced) != len(content) {
		t.Errorf("snapshot did not replace the previous file: %d vs %d bytes",
			len(replaced), len(content))
	}
}

func TestWriteImage_BadPath(t *testing.T) {
	img := renderer.NewImage(1, 1)
	if err := writeImage(filepath.Join(t.TempDir(), "missing", "out.ppm"), img, 1); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}
