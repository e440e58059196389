package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.txt")
	if err := os.WriteFile(path, []byte("AB\nCD\n"), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	table, err := Train(path)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if table.Count("AB") != 1 || table.Count("CD") != 1 || table.Count("BC") != 0 {
		t.Fatalf("unexpected counts: %v", table.Counts())
	}
}

func TestTrainRejectsEmptyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("a\n\nb\n"), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	if _, err := Train(path); err == nil {
		t.Fatalf("expected error for corpus without pairs")
	}
	if _, err := Train(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing corpus")
	}
}

func TestLoadCiphertextJoinsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cipher.txt")
	if err := os.WriteFile(path, []byte("XYZ\r\nABC\n"), 0o644); err != nil {
		t.Fatalf("write ciphertext: %v", err)
	}
	text, err := LoadCiphertext(path, nil)
	if err != nil {
		t.Fatalf("LoadCiphertext failed: %v", err)
	}
	if text != "XYZ ABC " {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestLoadCiphertextFromStdin(t *testing.T) {
	text, err := LoadCiphertext("-", strings.NewReader("hello\nworld"))
	if err != nil {
		t.Fatalf("LoadCiphertext failed: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected text %q", text)
	}
	if _, err := LoadCiphertext("", strings.NewReader(" \n ")); err == nil {
		t.Fatalf("expected error for blank ciphertext")
	}
}
