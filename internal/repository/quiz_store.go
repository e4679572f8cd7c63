package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"morningo-backend/internal/models"
)

// ErrStorageIO means persisting the store document failed. The backing file
// keeps its previous complete content when this is returned.
var ErrStorageIO = errors.New("quiz store write failed")

// QuizStore persists quiz records to a single JSON file without requiring a
// database. Writes go through a temp-file-plus-rename cycle, so the backing
// path always points at a complete document and readers never need the write
// lock. There is no cross-process coordination: two processes appending to
// the same path cannot corrupt the document, but one append may be lost
// (last writer wins).
type QuizStore struct {
	path string
	mu   sync.Mutex
}

type storeDocument struct {
	Quizzes []models.QuizRecord `json:"quizzes"`
}

func NewQuizStore(path string) (*QuizStore, error) {
	s := &QuizStore{path: path}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.persist(&storeDocument{Quizzes: []models.QuizRecord{}}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// AddRecord appends one record to the store, assigning a fresh id when the
// record has none, and returns the record as stored. Calls serialize on the
// store's lock; the document after N completed calls contains exactly those
// N records in acquisition order.
func (s *QuizStore) AddRecord(record models.QuizRecord) (models.QuizRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	doc := s.load()
	doc.Quizzes = append(doc.Quizzes, record)
	if err := s.persist(doc); err != nil {
		return models.QuizRecord{}, err
	}

	return record, nil
}

// ListRecent returns at most limit records, newest createdAt first. Ties keep
// their stored relative order. A limit of zero or less means the default 20.
func (s *QuizStore) ListRecent(limit int) []models.QuizRecord {
	if limit <= 0 {
		limit = 20
	}

	doc := s.load()
	quizzes := doc.Quizzes
	sort.SliceStable(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt > quizzes[j].CreatedAt
	})

	if len(quizzes) > limit {
		quizzes = quizzes[:limit]
	}
	return quizzes
}

// load tolerates a missing, empty, or corrupt backing file: any of those
// reads as an empty store rather than an error.
func (s *QuizStore) load() *storeDocument {
	doc := &storeDocument{}

	data, err := os.ReadFile(s.path)
	if err == nil {
		if err := json.Unmarshal(data, doc); err != nil {
			doc.Quizzes = nil
		}
	}
	if doc.Quizzes == nil {
		doc.Quizzes = []models.QuizRecord{}
	}
	return doc
}

// persist writes the full document to a temp file in the backing directory,
// then renames it onto the backing path. The rename is the commit point; on
// any earlier failure the temp file is removed and the previous document
// stays in place.
func (s *QuizStore) persist(doc *storeDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "quizzes*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	return nil
}
