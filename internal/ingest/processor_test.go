package ingest

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)
	if _, err := w.Write([]byte(doc.String())); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocxText(t *testing.T) {
	data := buildDocx(t, []string{
		"Section 4.1: Knee surgery is covered.",
		"Section 9.2: Cosmetic surgery is excluded.",
	})

	text, err := ExtractDocxText(data)
	if err != nil {
		t.Fatalf("ExtractDocxText: %v", err)
	}
	lines := strings.Split(text, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2: %q", len(lines), text)
	}
	if !strings.Contains(lines[0], "Knee surgery") || !strings.Contains(lines[1], "excluded") {
		t.Errorf("text = %q", text)
	}
}

func TestExtractDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("other.xml")
	_, _ = w.Write([]byte("<x/>"))
	_ = zw.Close()

	if _, err := ExtractDocxText(buf.Bytes()); err == nil {
		t.Error("expected error for docx without word/document.xml")
	}
}

func TestExtractEmailText(t *testing.T) {
	raw := "From: claims@example.com\r\n" +
		"To: insurer@example.com\r\n" +
		"Subject: Claim for knee surgery\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"46M, knee surgery in Pune, 3-month-old insurance policy.\r\n"

	text, err := ExtractEmailText([]byte(raw))
	if err != nil {
		t.Fatalf("ExtractEmailText: %v", err)
	}
	if !strings.Contains(text, "Subject: Claim for knee surgery") {
		t.Errorf("missing subject: %q", text)
	}
	if !strings.Contains(text, "knee surgery in Pune") {
		t.Errorf("missing body: %q", text)
	}
}

func TestExtractEmailMultipart(t *testing.T) {
	raw := "Subject: Policy documents\r\n" +
		"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Plain body part.\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>HTML part</p>\r\n" +
		"--XYZ--\r\n"

	text, err := ExtractEmailText([]byte(raw))
	if err != nil {
		t.Fatalf("ExtractEmailText: %v", err)
	}
	if !strings.Contains(text, "Plain body part.") {
		t.Errorf("missing plain part: %q", text)
	}
	if strings.Contains(text, "HTML part") {
		t.Errorf("html part should be skipped: %q", text)
	}
}

func TestProcessPlainText(t *testing.T) {
	p := NewProcessor(nil)

	doc, err := p.Process("policy.txt", []byte("Section 1: All surgical procedures are covered.\n"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if doc.ID == "" || doc.Source != "policy.txt" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Metadata["format"] != "txt" {
		t.Errorf("format = %v", doc.Metadata["format"])
	}

	if _, err := p.Process("empty.txt", nil); err == nil {
		t.Error("expected error for empty document")
	}
}
