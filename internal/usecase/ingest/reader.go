package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// File is one document to index. Data, when set, is used instead of reading Path.
type File struct {
	Name string
	Path string
	Data []byte
}

func (f File) fileName() string {
	if f.Name != "" {
		return f.Name
	}
	return filepath.Base(f.Path)
}

func (f File) bytes() ([]byte, error) {
	if f.Data != nil {
		return f.Data, nil
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return data, nil
}

// Supported reports whether name has an extension the reader understands.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt":
		return true
	default:
		return false
	}
}

// extractText returns the plain text of a .pdf or .txt file.
func extractText(f File) (string, error) {
	name := f.fileName()
	if !Supported(name) {
		return "", fmt.Errorf("%s: %w", name, domain.ErrUnsupportedFile)
	}

	data, err := f.bytes()
	if err != nil {
		return "", err
	}

	if strings.EqualFold(filepath.Ext(name), ".txt") {
		return string(data), nil
	}
	return pdfText(name, data)
}

func pdfText(name string, data []byte) (text string, err error) {
	// the pdf reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf %s: %v: %w", name, r, domain.ErrInvalidRequest)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w: %w", name, domain.ErrInvalidRequest, err)
	}
	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", name, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf %s: %w", name, err)
	}
	return buf.String(), nil
}
