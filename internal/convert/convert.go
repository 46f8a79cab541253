package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// DefaultMaxBytes is the conversion ceiling for a single document.
const DefaultMaxBytes int64 = 100 << 20

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var (
	ErrOversized       = errors.New("document exceeds the conversion size limit")
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrEmptyText       = errors.New("no text could be extracted")
)

// Converter turns uploaded documents into plain text.
type Converter struct {
	MaxBytes int64
}

// New returns a Converter; a non-positive limit falls back to DefaultMaxBytes.
func New(maxBytes int64) *Converter {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Converter{MaxBytes: maxBytes}
}

// Convert extracts text from a PDF, DOCX or plain-text payload.
func (c *Converter) Convert(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if int64(len(data)) > c.limit() {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrOversized, len(data), c.limit())
	}

	normalized := NormalizeMimeType(mimeType, fileName, data)
	var (
		text string
		err  error
	)
	switch {
	case normalized == MimePDF:
		text, err = extractPDF(data)
	case normalized == MimeDOCX:
		text, err = extractDOCX(data)
	case strings.HasPrefix(normalized, "text/"):
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, normalized)
	}
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", normalized, err)
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// CheckSize reports ErrOversized before a payload is read into memory.
func (c *Converter) CheckSize(size int64) error {
	if size > c.limit() {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrOversized, size, c.limit())
	}
	return nil
}

func (c *Converter) limit() int64 {
	if c == nil || c.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return c.MaxBytes
}

// extractPDF recovers from parser panics on malformed files.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractDOCX prefers the docx library and falls back to reading
// word/document.xml directly for files it rejects.
func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		defer doc.Close()
		return stripDocxXML(doc.Editable().GetContent()), nil
	}

	zr, zerr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if zerr != nil {
		return "", err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return stripDocxXML(string(raw)), nil
	}
	return "", errors.New("document.xml file not found")
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// NormalizeMimeType resolves the effective type from the declared MIME type,
// the file extension and, for zip containers, the archive contents.
func NormalizeMimeType(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == "" || clean == "application/octet-stream" {
		if byExt := mimeFromExt(fileName); byExt != "" {
			return byExt
		}
		if len(data) > 0 {
			clean = strings.Split(http.DetectContentType(data), ";")[0]
		}
	}
	if clean != "application/zip" {
		return clean
	}
	if isDOCXArchive(data) {
		return MimeDOCX
	}
	if byExt := mimeFromExt(fileName); byExt == MimeDOCX {
		return byExt
	}
	return clean
}

func mimeFromExt(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".txt", ".text", ".md":
		return MimeText
	default:
		return ""
	}
}

func isDOCXArchive(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
