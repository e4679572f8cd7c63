package services

import (
	"fmt"
	"strings"
)

const quizSchemaBlock = `JSON schema:
{
  "questions": [
    {
      "question": "string",
      "options": ["string", "string", "string", "string"],
      "correctIndex": 0,
      "explanation": "string"
    }
  ],
  "notes": [
    {
      "title": "concept name",
      "summary": "one-sentence summary",
      "details": ["key point 1", "key point 2"],
      "tip": "extra study tip"
    }
  ]
}`

// BuildTextQuizPrompt produces the prompt for quizzes generated from
// user-supplied study notes.
func BuildTextQuizPrompt(source string, numQuestions int, difficulty string) string {
	var b strings.Builder

	b.WriteString("You are a quiz author for university-level course material. Create a high-quality multiple-choice quiz from the study notes below.\n\n")
	b.WriteString("Requirements:\n")
	b.WriteString(fmt.Sprintf("- Exactly %d questions\n", numQuestions))
	b.WriteString("- Each question has exactly 4 answer options\n")
	b.WriteString(fmt.Sprintf("- Difficulty: %s\n", difficulty))
	b.WriteString("- Return ONLY valid JSON. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(quizSchemaBlock)
	b.WriteString("\n\nStudy notes:\n")
	b.WriteString(source)

	return b.String()
}

// BuildFileQuizPrompt produces the prompt for quizzes generated from an
// uploaded lecture document.
func BuildFileQuizPrompt(source string, numQuestions int) string {
	var b strings.Builder

	b.WriteString("Extract the core concepts from the lecture material below and turn them into a multiple-choice quiz.\n\n")
	b.WriteString("Requirements:\n")
	b.WriteString(fmt.Sprintf("- Exactly %d questions\n", numQuestions))
	b.WriteString("- Each question has exactly 4 answer options\n")
	b.WriteString("- Each question includes a short explanation grounded in the material\n")
	b.WriteString("- Add 3-5 review notes a learner can study from\n")
	b.WriteString("- Return ONLY valid JSON. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(quizSchemaBlock)
	b.WriteString("\n\nLecture material (excerpt):\n")
	b.WriteString(source)

	return b.String()
}
