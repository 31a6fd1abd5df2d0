package model

// QuestionKind enumerates the kinds of generated questions.
type QuestionKind string

const (
	QuestionKindMultipleChoice QuestionKind = "multiple-choice"
	QuestionKindTechnical      QuestionKind = "technical"
	QuestionKindBehavioral     QuestionKind = "behavioral"
	QuestionKindCoding         QuestionKind = "coding"
)

// TestCase is an input/output pair attached to coding questions.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Question is a single generated assessment item. Immutable once fetched;
// addressed by its index within the session's question set.
type Question struct {
	Text           string       `json:"question"`
	Kind           QuestionKind `json:"type"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswer  string       `json:"correctAnswer,omitempty"`
	Explanation    string       `json:"explanation,omitempty"`
	CodeSnippet    string       `json:"codeSnippet,omitempty"`
	TestCases      []TestCase   `json:"testCases,omitempty"`
	Constraints    string       `json:"constraints,omitempty"`
	ExpectedTopics []string     `json:"expectedTopics,omitempty"`
}

// SanitizedQuestion is a question without the correct answer or explanation,
// safe to send to the candidate during an active session.
type SanitizedQuestion struct {
	Text        string       `json:"question"`
	Kind        QuestionKind `json:"type"`
	Options     []string     `json:"options,omitempty"`
	CodeSnippet string       `json:"codeSnippet,omitempty"`
	TestCases   []TestCase   `json:"testCases,omitempty"`
	Constraints string       `json:"constraints,omitempty"`
}

// Sanitize strips grading fields from a question.
func (q Question) Sanitize() SanitizedQuestion {
	return SanitizedQuestion{
		Text:        q.Text,
		Kind:        q.Kind,
		Options:     q.Options,
		CodeSnippet: q.CodeSnippet,
		TestCases:   q.TestCases,
		Constraints: q.Constraints,
	}
}
