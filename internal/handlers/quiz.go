package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"morningo-backend/internal/models"
	"morningo-backend/internal/repository"
	"morningo-backend/internal/services"
)

// MaxSourceChars caps how much source text is forwarded to the model.
const MaxSourceChars = 8000

// QuizGenerator produces raw quiz JSON text for a prompt. Satisfied by
// services.GeminiService; handler tests substitute a stub.
type QuizGenerator interface {
	GenerateQuizContent(ctx context.Context, prompt string) (string, error)
}

type QuizHandler struct {
	store     *repository.QuizStore
	generator QuizGenerator
	extractor *services.FileExtractService
	uploadDir string
}

func NewQuizHandler(store *repository.QuizStore, generator QuizGenerator, extractor *services.FileExtractService, uploadDir string) *QuizHandler {
	return &QuizHandler{
		store:     store,
		generator: generator,
		extractor: extractor,
		uploadDir: uploadDir,
	}
}

func (h *QuizHandler) GenerateFromText(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	// Bounds count characters, not bytes, so multibyte scripts are not
	// under-measured.
	if utf8.RuneCountInString(req.SourceText) < 50 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "sourceText must be at least 50 characters", r))
		return
	}
	numQuestions, ok := normalizeNumQuestions(req.NumQuestions)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "numQuestions must be between 1 and 20", r))
		return
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "normal"
	}
	if utf8.RuneCountInString(difficulty) > 32 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "difficulty must be at most 32 characters", r))
		return
	}

	source := truncateChars(services.NormalizeText(req.SourceText), MaxSourceChars)
	if utf8.RuneCountInString(source) < 30 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "sourceText has too little content", r))
		return
	}

	hash := sha256.Sum256([]byte(source))
	prompt := services.BuildTextQuizPrompt(source, numQuestions, difficulty)

	h.generateAndStore(w, r, prompt, models.QuizRecord{
		SourceType: models.SourceTypeText,
		Reference:  models.QuizReference{Hash: hex.EncodeToString(hash[:])},
		Difficulty: difficulty,
	})
}

func (h *QuizHandler) GenerateFromFile(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizFromFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if len(req.FileID) < 8 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "fileId is required", r))
		return
	}
	numQuestions, ok := normalizeNumQuestions(req.NumQuestions)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "numQuestions must be between 1 and 20", r))
		return
	}

	path, err := h.resolveUpload(req.FileID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Uploaded file not found", r))
		return
	}

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = h.extractor.ExtractPDF(path)
	case ".pptx":
		text, err = h.extractor.ExtractPPTX(path)
	default:
		writeJSON(w, http.StatusBadRequest, errorResp("UNSUPPORTED_FORMAT", "Only .pdf and .pptx files are supported", r))
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("NO_TEXT_EXTRACTED", "No text could be extracted from the document", r))
		return
	}

	prompt := services.BuildFileQuizPrompt(truncateChars(text, MaxSourceChars), numQuestions)

	h.generateAndStore(w, r, prompt, models.QuizRecord{
		SourceType: models.SourceTypeFile,
		Reference:  models.QuizReference{FileID: req.FileID},
	})
}

func (h *QuizHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be a positive integer", r))
			return
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quizzes": h.store.ListRecent(limit),
	})
}

// generateAndStore runs the shared tail of both generate endpoints: model
// call, payload normalization, record persistence, response.
func (h *QuizHandler) generateAndStore(w http.ResponseWriter, r *http.Request, prompt string, record models.QuizRecord) {
	raw, err := h.generator.GenerateQuizContent(r.Context(), prompt)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	payload, err := services.ParseQuizResponse(raw)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	record.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	record.NumQuestions = len(payload.Questions)
	record.Questions = payload.Questions
	record.Notes = payload.Notes
	if record.Notes == nil {
		record.Notes = []string{}
	}

	stored, err := h.store.AddRecord(record)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.QuizResponse{
		Questions: stored.Questions,
		Notes:     stored.Notes,
		QuizID:    stored.ID,
	})
}

// resolveUpload confines a client-supplied file id to the upload directory.
func (h *QuizHandler) resolveUpload(fileID string) (string, error) {
	base, err := filepath.Abs(h.uploadDir)
	if err != nil {
		return "", err
	}

	path, err := filepath.Abs(filepath.Join(base, fileID))
	if err != nil {
		return "", err
	}
	if path != base && !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return "", os.ErrNotExist
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// normalizeNumQuestions applies the 1-20 bound and the default of 5. JSON
// decoding cannot distinguish an omitted numQuestions from an explicit 0, so
// 0 selects the default rather than being rejected.
func normalizeNumQuestions(n int) (int, bool) {
	if n == 0 {
		return 5, true
	}
	if n < 1 || n > 20 {
		return 0, false
	}
	return n, true
}

func truncateChars(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: chimiddleware.GetReqID(r.Context()),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrUnreadableDocument):
		writeJSON(w, http.StatusBadRequest, errorResp("UNREADABLE_DOCUMENT", "The document could not be read", r))
	case errors.Is(err, services.ErrNoQuestionArray), errors.Is(err, services.ErrEmptyQuiz), errors.Is(err, services.ErrEmptyResponse):
		writeJSON(w, http.StatusBadGateway, errorResp("MODEL_OUTPUT_INVALID", "The model did not return a usable quiz", r))
	case errors.Is(err, repository.ErrStorageIO):
		writeJSON(w, http.StatusInternalServerError, errorResp("STORAGE_ERROR", "Failed to persist the quiz", r))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResp("TIMEOUT", "The request was cancelled before completion", r))
	default:
		writeJSON(w, http.StatusBadGateway, errorResp("GENERATION_FAILED", "Quiz generation failed", r))
	}
}
