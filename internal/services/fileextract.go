package services

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

type FileExtractService struct{}

func NewFileExtractService() *FileExtractService {
	return &FileExtractService{}
}

func (s *FileExtractService) ExtractTextFromPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt":
		return s.extractTXT(path)
	case ".pdf":
		return s.ExtractPDF(path)
	case ".pptx":
		return s.ExtractPPTX(path)
	default:
		return "", fmt.Errorf("unsupported file type for text extraction: %s", ext)
	}
}

func (s *FileExtractService) extractTXT(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	return NormalizeText(string(b)), nil
}

// ExtractPDF reads every page of a PDF. A page that fails text extraction
// contributes an empty string instead of aborting the whole document.
func (s *FileExtractService) ExtractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	defer f.Close()

	parts := make([]string, 0, reader.NumPage())
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			parts = append(parts, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			content = ""
		}
		parts = append(parts, content)
	}

	return NormalizeText(strings.Join(parts, "\n")), nil
}

// Matches inline text runs in DrawingML slide markup, attributes included.
var slideTextRunPattern = regexp.MustCompile(`(?s)<a:t[^>]*>(.*?)</a:t>`)

var xmlEntityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// ExtractPPTX pulls the text runs out of every slide in a pptx archive.
// Slides are visited in lexicographic filename order, which reproduces
// presentation order as long as PowerPoint's zero-padded export naming
// holds; non-padded numeric names (slide10.xml before slide2.xml) would
// sort out of order. Unreadable or invalid slide entries are skipped.
func (s *FileExtractService) ExtractPPTX(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	defer r.Close()

	var slideNames []string
	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slideNames = append(slideNames, f.Name)
			files[f.Name] = f
		}
	}
	sort.Strings(slideNames)

	var parts []string
	for _, name := range slideNames {
		rc, err := files[name].Open()
		if err != nil {
			continue
		}
		xmlBytes, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		xmlText := strings.ToValidUTF8(string(xmlBytes), "")
		for _, match := range slideTextRunPattern.FindAllStringSubmatch(xmlText, -1) {
			parts = append(parts, xmlEntityReplacer.Replace(match[1]))
		}
	}

	return NormalizeText(strings.Join(parts, "\n")), nil
}

var (
	carriageReturnPattern = regexp.MustCompile(`\r+`)
	excessNewlinePattern  = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText cleans extracted text: NUL bytes become spaces, runs of
// carriage returns collapse to a single newline, three or more consecutive
// newlines collapse to exactly two, and surrounding whitespace is stripped.
// Idempotent.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\x00", " ")
	s = carriageReturnPattern.ReplaceAllString(s, "\n")
	s = excessNewlinePattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
