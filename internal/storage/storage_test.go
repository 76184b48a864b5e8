package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/koopa0/policy-agent/internal/log"
)

func TestLocal_SaveAndURL(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "https://files.example.com/downloads/", log.NewNop())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	stored, err := l.Save(context.Background(), []byte("payload"), "Answered_q_20260830T120000Z.xlsx")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, stored))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("stored content = %q", data)
	}

	want := "https://files.example.com/downloads/Answered_q_20260830T120000Z.xlsx"
	if got := l.URL(stored); got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}

func TestLocal_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	if _, err := NewLocal(dir, "http://x", log.NewNop()); err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestLocal_SaveRejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "http://x", log.NewNop())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	for _, name := range []string{"", "../escape.xlsx", "a/b.xlsx", `a\b.xlsx`, "..", "."} {
		if _, err := l.Save(context.Background(), []byte("x"), name); !errors.Is(err, ErrInvalidFilename) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidFilename", name, err)
		}
	}
}

func TestLocal_SaveHonorsCancelledContext(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "http://x", log.NewNop())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.Save(ctx, []byte("x"), "f.xlsx"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
