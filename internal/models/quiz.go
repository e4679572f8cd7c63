package models

// QuizQuestion is one validated multiple-choice question. Options always
// holds exactly 4 entries and CorrectIndex always points inside Options.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

// QuizReference identifies where a quiz came from: a content hash for raw
// text sources, an upload identifier for file sources. The store treats it
// as opaque.
type QuizReference struct {
	Hash   string `json:"hash,omitempty"`
	FileID string `json:"fileId,omitempty"`
}

// QuizRecord is one persisted quiz-generation result. Records are created
// once and never mutated or deleted. The JSON field names are the backing
// file format and must stay stable across restarts.
type QuizRecord struct {
	ID           string         `json:"id"`
	CreatedAt    string         `json:"createdAt"`
	SourceType   string         `json:"sourceType"`
	Reference    QuizReference  `json:"reference"`
	NumQuestions int            `json:"numQuestions"`
	Difficulty   string         `json:"difficulty,omitempty"`
	Questions    []QuizQuestion `json:"questions"`
	Notes        []string       `json:"notes"`
}

const (
	SourceTypeText = "text"
	SourceTypeFile = "file"
)

type GenerateQuizRequest struct {
	SourceText   string `json:"sourceText"`
	NumQuestions int    `json:"numQuestions"`
	Difficulty   string `json:"difficulty"`
}

type GenerateQuizFromFileRequest struct {
	FileID       string `json:"fileId"`
	NumQuestions int    `json:"numQuestions"`
}

type QuizResponse struct {
	Questions []QuizQuestion `json:"questions"`
	Notes     []string       `json:"notes"`
	QuizID    string         `json:"quizId"`
}

// API Error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
