package handlers

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"morningo-backend/internal/models"
	"morningo-backend/internal/repository"
	"morningo-backend/internal/services"
)

type stubGenerator struct {
	reply      string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateQuizContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

const validReply = `{"questions":[{"question":"Q1","options":["a","b","c","d"],"correctIndex":1,"explanation":"e"}],"notes":["remember this"]}`

var longSource = strings.Repeat("The mitochondria is the powerhouse of the cell. ", 4)

func newTestHandler(t *testing.T, gen *stubGenerator) (*QuizHandler, *repository.QuizStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := repository.NewQuizStore(filepath.Join(dir, "data", "quizzes.json"))
	if err != nil {
		t.Fatalf("NewQuizStore: %v", err)
	}
	uploadDir := filepath.Join(dir, "upload")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		t.Fatal(err)
	}
	h := NewQuizHandler(store, gen, services.NewFileExtractService(), uploadDir)
	return h, store, uploadDir
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestGenerateFromText(t *testing.T) {
	gen := &stubGenerator{reply: validReply}
	h, store, _ := newTestHandler(t, gen)

	body, _ := json.Marshal(models.GenerateQuizRequest{
		SourceText:   longSource,
		NumQuestions: 3,
		Difficulty:   "hard",
	})
	w := postJSON(t, h.GenerateFromText, string(body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp models.QuizResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.QuizID == "" {
		t.Error("expected a quizId")
	}
	if len(resp.Questions) != 1 || resp.Questions[0].CorrectIndex != 1 {
		t.Errorf("unexpected questions: %+v", resp.Questions)
	}
	if len(resp.Notes) != 1 || resp.Notes[0] != "remember this" {
		t.Errorf("unexpected notes: %v", resp.Notes)
	}

	if !strings.Contains(gen.lastPrompt, "Exactly 3 questions") {
		t.Errorf("prompt missing question count: %q", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "Difficulty: hard") {
		t.Errorf("prompt missing difficulty: %q", gen.lastPrompt)
	}

	records := store.ListRecent(0)
	if len(records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(records))
	}
	rec := records[0]
	if rec.SourceType != models.SourceTypeText {
		t.Errorf("sourceType = %q", rec.SourceType)
	}
	if rec.Reference.Hash == "" || rec.Reference.FileID != "" {
		t.Errorf("expected hash reference, got %+v", rec.Reference)
	}
	if rec.NumQuestions != 1 || rec.Difficulty != "hard" {
		t.Errorf("unexpected record metadata: %+v", rec)
	}
	if rec.CreatedAt == "" {
		t.Error("expected createdAt to be set")
	}
}

func TestGenerateFromTextValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed body", `{`},
		{"short sourceText", `{"sourceText":"too short"}`},
		{"numQuestions too large", `{"sourceText":"` + longSource + `","numQuestions":21}`},
		{"multibyte text under 50 characters", `{"sourceText":"` + strings.Repeat("세포생물학", 4) + `"}`},
		{"numQuestions negative", `{"sourceText":"` + longSource + `","numQuestions":-1}`},
		{"difficulty too long", `{"sourceText":"` + longSource + `","difficulty":"` + strings.Repeat("x", 33) + `"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &stubGenerator{reply: validReply}
			h, store, _ := newTestHandler(t, gen)

			w := postJSON(t, h.GenerateFromText, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if len(store.ListRecent(0)) != 0 {
				t.Error("nothing should be stored on validation failure")
			}
		})
	}
}

func TestGenerateFromTextMultibyteSource(t *testing.T) {
	gen := &stubGenerator{reply: validReply}
	h, _, _ := newTestHandler(t, gen)

	// 55 characters, far more bytes; must clear the 50-character minimum.
	source := strings.Repeat("세포생물학", 11)
	w := postJSON(t, h.GenerateFromText, `{"sourceText":"`+source+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestGenerateFromTextDefaults(t *testing.T) {
	gen := &stubGenerator{reply: validReply}
	h, _, _ := newTestHandler(t, gen)

	// An explicit 0 is indistinguishable from an omitted field after JSON
	// decoding and selects the default question count.
	w := postJSON(t, h.GenerateFromText, `{"sourceText":"`+longSource+`","numQuestions":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(gen.lastPrompt, "Exactly 5 questions") {
		t.Errorf("expected default of 5 questions in prompt")
	}
	if !strings.Contains(gen.lastPrompt, "Difficulty: normal") {
		t.Errorf("expected default difficulty in prompt")
	}
}

func TestGenerateFromTextModelFailures(t *testing.T) {
	tests := []struct {
		name         string
		gen          *stubGenerator
		expectedCode string
	}{
		{"generator error", &stubGenerator{err: errors.New("boom")}, "GENERATION_FAILED"},
		{"empty reply", &stubGenerator{err: services.ErrEmptyResponse}, "MODEL_OUTPUT_INVALID"},
		{"unparsable reply", &stubGenerator{reply: "I could not make a quiz, sorry."}, "MODEL_OUTPUT_INVALID"},
		{"all questions dropped", &stubGenerator{reply: `{"questions":[{"options":["a","b"]}]}`}, "MODEL_OUTPUT_INVALID"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, store, _ := newTestHandler(t, tc.gen)

			w := postJSON(t, h.GenerateFromText, `{"sourceText":"`+longSource+`"}`)
			if w.Code != http.StatusBadGateway {
				t.Errorf("status = %d, want 502", w.Code)
			}

			var resp models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error.Code != tc.expectedCode {
				t.Errorf("error code = %q, want %q", resp.Error.Code, tc.expectedCode)
			}
			if len(store.ListRecent(0)) != 0 {
				t.Error("nothing should be stored on model failure")
			}
		})
	}
}

func writeSlideDeck(t *testing.T, dir, name string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("<a:t>Photosynthesis converts light into chemical energy.</a:t>"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateFromFile(t *testing.T) {
	gen := &stubGenerator{reply: validReply}
	h, store, uploadDir := newTestHandler(t, gen)

	writeSlideDeck(t, uploadDir, "17000_abcd1234.pptx")

	w := postJSON(t, h.GenerateFromFile, `{"fileId":"17000_abcd1234.pptx","numQuestions":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if !strings.Contains(gen.lastPrompt, "Photosynthesis") {
		t.Errorf("extracted text missing from prompt")
	}

	records := store.ListRecent(0)
	if len(records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(records))
	}
	if records[0].SourceType != models.SourceTypeFile {
		t.Errorf("sourceType = %q", records[0].SourceType)
	}
	if records[0].Reference.FileID != "17000_abcd1234.pptx" {
		t.Errorf("reference = %+v", records[0].Reference)
	}
}

func TestGenerateFromFileErrors(t *testing.T) {
	gen := &stubGenerator{reply: validReply}
	h, _, uploadDir := newTestHandler(t, gen)

	// A pptx that exists but is not an archive, and an unsupported extension.
	if err := os.WriteFile(filepath.Join(uploadDir, "17000_corrupt1.pptx"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(uploadDir, "17000_video123.mp4"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"fileId too short", `{"fileId":"x.pdf"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing file", `{"fileId":"17000_missing0.pdf"}`, http.StatusNotFound, "NOT_FOUND"},
		{"path traversal", `{"fileId":"../../etc/passwd"}`, http.StatusNotFound, "NOT_FOUND"},
		{"unsupported extension", `{"fileId":"17000_video123.mp4"}`, http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{"corrupt archive", `{"fileId":"17000_corrupt1.pptx"}`, http.StatusBadRequest, "UNREADABLE_DOCUMENT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, h.GenerateFromFile, tc.body)
			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}

			var resp models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("error code = %q, want %q", resp.Error.Code, tc.wantCode)
			}
		})
	}
}

func TestListRecentHandler(t *testing.T) {
	gen := &stubGenerator{reply: validReply}
	h, store, _ := newTestHandler(t, gen)

	for _, ts := range []string{"2026-01-01T00:00:00Z", "2026-01-02T00:00:00Z"} {
		_, err := store.AddRecord(models.QuizRecord{CreatedAt: ts, SourceType: models.SourceTypeText})
		if err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes?limit=1", nil)
	w := httptest.NewRecorder()
	h.ListRecent(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Quizzes []models.QuizRecord `json:"quizzes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Quizzes) != 1 {
		t.Fatalf("expected 1 quiz, got %d", len(resp.Quizzes))
	}
	if resp.Quizzes[0].CreatedAt != "2026-01-02T00:00:00Z" {
		t.Errorf("expected newest quiz first, got %q", resp.Quizzes[0].CreatedAt)
	}

	t.Run("bad limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/quizzes?limit=zero", nil)
		w := httptest.NewRecorder()
		h.ListRecent(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestTruncateChars(t *testing.T) {
	if got := truncateChars("hello", 10); got != "hello" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncateChars("héllo wörld", 5); got != "héllo" {
		t.Errorf("rune truncation wrong: %q", got)
	}
}

var _ QuizGenerator = (*services.GeminiService)(nil)
