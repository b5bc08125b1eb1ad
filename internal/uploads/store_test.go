package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndOverwrite(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "/uploads/")

	url, err := s.Save("profile-pic", "event_1.png", strings.NewReader("first"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "/uploads/profile-pic/event_1.png" {
		t.Errorf("url = %q", url)
	}

	// Same path again replaces the content.
	if _, err := s.Save("profile-pic", "event_1.png", strings.NewReader("second")); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(root, "profile-pic", "event_1.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != "second" {
		t.Errorf("content = %q, want second", b)
	}
}

func TestSaveRejectsTraversal(t *testing.T) {
	s := NewStore(t.TempDir(), "/uploads")

	url, err := s.Save("bucket", "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		return // outright rejection is fine too
	}
	if strings.Contains(url, "..") {
		t.Errorf("url %q escapes the bucket", url)
	}
	if _, statErr := os.Stat(filepath.Join(s.Root, "bucket", "passwd")); statErr != nil {
		t.Errorf("object not stored inside the bucket: %v", statErr)
	}
}
