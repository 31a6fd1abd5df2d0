package session

import (
	"math"
	"regexp"
	"strings"

	"github.com/instaprep/instaprep-backend/internal/model"
)

// letterPattern accepts the answer-key formats the generator emits:
// "A", "B.", "C)", "Option D".
var letterPattern = regexp.MustCompile(`(?i)^(?:Option\s+)?([A-D])(?:[.)]|$)`)

// correctLetter normalises an answer string to its option letter. When the
// string is not a letter form it is matched against the option texts and
// mapped back to a letter by position. Empty string means no match.
func correctLetter(answer string, options []string) string {
	trimmed := strings.TrimSpace(answer)
	if m := letterPattern.FindStringSubmatch(trimmed); m != nil {
		return strings.ToUpper(m[1])
	}
	for i, opt := range options {
		if i >= 4 {
			break
		}
		if strings.EqualFold(strings.TrimSpace(opt), trimmed) {
			return string(rune('A' + i))
		}
	}
	return ""
}

// ScoreObjective grades a multiple-choice paper locally. Both the answer key
// and the candidate answer are reduced to option letters before comparing,
// so formatting drift in either never costs a point. Returns the percentage
// score, rounded, and the per-question correctness.
func ScoreObjective(questions []model.Question, answers []string) (int, []bool) {
	perQuestion := make([]bool, len(questions))
	if len(questions) == 0 {
		return 0, perQuestion
	}
	correct := 0
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		want := correctLetter(q.CorrectAnswer, q.Options)
		got := correctLetter(answers[i], q.Options)
		if want != "" && want == got {
			perQuestion[i] = true
			correct++
		}
	}
	score := int(math.Round(float64(correct) / float64(len(questions)) * 100))
	return score, perQuestion
}
