package storage

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func uploadRequest(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["image"][0]
}

func TestSaveImage(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}

	header := uploadRequest(t, "evidence.png", []byte("fake-png-bytes"))
	name, err := store.SaveImage("ot", header)
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if !strings.HasPrefix(name, "ot_") || !strings.HasSuffix(name, ".png") {
		t.Errorf("unexpected stored name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(store.BaseDir, name))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "fake-png-bytes" {
		t.Errorf("stored content mismatch: %q", data)
	}
}

func TestSaveImageRejectsNonImage(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}

	header := uploadRequest(t, "evidence.pdf", []byte("%PDF-1.4"))
	if _, err := store.SaveImage("ot", header); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestSaveImageRejectsOversized(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 8)
	if err != nil {
		t.Fatal(err)
	}

	header := uploadRequest(t, "evidence.jpg", []byte("more-than-eight-bytes"))
	if _, err := store.SaveImage("ot", header); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}

	header := uploadRequest(t, "evidence.jpg", []byte("bytes"))
	name, err := store.SaveImage("ot", header)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Remove(name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.BaseDir, name)); !os.IsNotExist(err) {
		t.Error("file still exists after Remove")
	}

	// Removing again is a no-op.
	if err := store.Remove(name); err != nil {
		t.Errorf("second Remove: %v", err)
	}

	if err := store.Remove("../outside.txt"); err == nil {
		t.Error("expected error for path traversal")
	}
}
