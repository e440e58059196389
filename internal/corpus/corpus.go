// Package corpus loads training text and ciphertext from files.
package corpus

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/verte-zerg/subcrack/internal/bigram"
)

// Train builds a bigram table from the file at path, one line at a time.
func Train(path string) (*bigram.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only corpus.
			_ = cerr
		}
	}()

	table, err := bigram.Build(file)
	if err != nil {
		return nil, err
	}
	if table.Total() == 0 {
		return nil, fmt.Errorf("corpus %s has no letter pairs", path)
	}
	return table, nil
}

// LoadCiphertext reads the file at path, or stdin when path is "" or "-".
func LoadCiphertext(path string, stdin io.Reader) (string, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				// Best-effort close for read-only ciphertext.
				_ = cerr
			}
		}()
		r = file
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	text := JoinLines(string(data))
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("ciphertext is empty")
	}
	return text, nil
}

// JoinLines collapses line breaks to spaces so the text is one stream.
func JoinLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\n", " ")
}
