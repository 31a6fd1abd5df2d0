package session

import (
	"errors"
	"sync"

	"github.com/instaprep/instaprep-backend/internal/model"
)

var (
	ErrNoQuestions      = errors.New("question set is empty")
	ErrIndexOutOfRange  = errors.New("question index out of range")
	ErrNavigationDenied = errors.New("free navigation is disabled for this round")
)

// QuestionSet tracks the candidate's position and answers over a fixed list
// of questions. Online assessments allow free jumps; interview rounds only
// move forward. Coding questions count as answered only after an explicit
// submit, so a draft left in the editor never scores.
type QuestionSet struct {
	mu        sync.Mutex
	questions []model.Question
	answers   []string
	submitted map[int]bool
	visited   map[int]bool
	index     int
	freeNav   bool
}

func NewQuestionSet(questions []model.Question, freeNav bool) *QuestionSet {
	q := &QuestionSet{
		questions: questions,
		answers:   make([]string, len(questions)),
		submitted: make(map[int]bool),
		visited:   make(map[int]bool),
		freeNav:   freeNav,
	}
	if len(questions) > 0 {
		q.visited[0] = true
	}
	return q
}

// Len returns the number of questions.
func (q *QuestionSet) Len() int {
	return len(q.questions)
}

// Index returns the current question position.
func (q *QuestionSet) Index() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.index
}

// Current returns the question at the cursor.
func (q *QuestionSet) Current() (model.Question, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.questions) == 0 {
		return model.Question{}, ErrNoQuestions
	}
	return q.questions[q.index], nil
}

// Questions returns the full list.
func (q *QuestionSet) Questions() []model.Question {
	return q.questions
}

// Answer records the candidate's answer for the question at idx. Recording
// an answer never moves the cursor.
func (q *QuestionSet) Answer(idx int, answer string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if idx < 0 || idx >= len(q.questions) {
		return ErrIndexOutOfRange
	}
	q.answers[idx] = answer
	return nil
}

// SubmitCode marks the coding question at idx as submitted with the given
// source. Submitting again overwrites the previous submission.
func (q *QuestionSet) SubmitCode(idx int, code string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if idx < 0 || idx >= len(q.questions) {
		return ErrIndexOutOfRange
	}
	q.answers[idx] = code
	q.submitted[idx] = true
	return nil
}

// Answered reports whether the question at idx counts as answered.
func (q *QuestionSet) Answered(idx int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.answeredLocked(idx)
}

func (q *QuestionSet) answeredLocked(idx int) bool {
	if idx < 0 || idx >= len(q.questions) {
		return false
	}
	if q.questions[idx].Kind == model.QuestionKindCoding {
		return q.submitted[idx]
	}
	return q.answers[idx] != ""
}

// AnsweredCount returns how many questions count as answered.
func (q *QuestionSet) AnsweredCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for i := range q.questions {
		if q.answeredLocked(i) {
			n++
		}
	}
	return n
}

// Advance moves the cursor to the next question. Returns false when already
// on the last question.
func (q *QuestionSet) Advance() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.index >= len(q.questions)-1 {
		return false
	}
	q.index++
	q.visited[q.index] = true
	return true
}

// JumpTo moves the cursor to an arbitrary question. Only rounds with free
// navigation allow it.
func (q *QuestionSet) JumpTo(idx int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.freeNav {
		return ErrNavigationDenied
	}
	if idx < 0 || idx >= len(q.questions) {
		return ErrIndexOutOfRange
	}
	q.index = idx
	q.visited[idx] = true
	return nil
}

// Visited reports whether the cursor has ever rested on the question at idx.
// Derived for the client's question palette; visiting never implies answering.
func (q *QuestionSet) Visited(idx int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visited[idx]
}

// VisitedList returns the visited flag for every question in order.
func (q *QuestionSet) VisitedList() []bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]bool, len(q.questions))
	for i := range out {
		out[i] = q.visited[i]
	}
	return out
}

// Answers returns a copy of the answer slice as recorded so far.
func (q *QuestionSet) Answers() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.answers))
	copy(out, q.answers)
	return out
}
