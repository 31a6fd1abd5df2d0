package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/instaprep/instaprep-backend/internal/model"
)

// Evaluation is the remote collaborator's judgement of a finished session.
type Evaluation struct {
	Feedback          string `json:"feedback"`
	Score             int    `json:"score"`
	PerQuestionScores []int  `json:"questionScores,omitempty"`
}

// DegradedFeedback is stored when evaluation could not be obtained. Losing a
// session's result because the AI call failed is worse than a degraded report.
const DegradedFeedback = "Evaluation failed."

// EvaluationService scores answers via the Gemini collaborator. It never
// returns an error: any failure degrades to a zero-score placeholder so
// submission can always complete.
type EvaluationService struct {
	client *Client
	log    zerolog.Logger
}

// NewEvaluationService creates an EvaluationService.
func NewEvaluationService(client *Client, log zerolog.Logger) *EvaluationService {
	return &EvaluationService{
		client: client,
		log:    log.With().Str("component", "ai_evaluate").Logger(),
	}
}

// Evaluate submits the full question/answer set for subjective scoring.
func (s *EvaluationService) Evaluate(ctx context.Context, role string, round model.RoundType, questions []model.Question, answers []string) Evaluation {
	prompt := buildEvaluationPrompt(role, round, questions, answers)

	text, err := s.client.GenerateText(ctx, prompt)
	if err != nil {
		s.log.Warn().Err(err).Msg("Evaluation call failed, degrading")
		return Evaluation{Feedback: DegradedFeedback, Score: 0}
	}

	var eval Evaluation
	if err := ExtractJSON(text, &eval); err != nil {
		// Keep whatever prose the model produced as the feedback.
		s.log.Warn().Err(err).Msg("Evaluation response unparseable, keeping raw text")
		return Evaluation{Feedback: strings.TrimSpace(text), Score: 0}
	}

	if eval.Score < 0 {
		eval.Score = 0
	}
	if eval.Score > 100 {
		eval.Score = 100
	}
	return eval
}

func buildEvaluationPrompt(role string, round model.RoundType, questions []model.Question, answers []string) string {
	var b strings.Builder
	for i, q := range questions {
		expected := q.CorrectAnswer
		if expected == "" {
			if len(q.ExpectedTopics) > 0 {
				expected = strings.Join(q.ExpectedTopics, ", ")
			} else {
				expected = "Code Solution"
			}
		}
		answer := "Skipped"
		if i < len(answers) && answers[i] != "" {
			answer = answers[i]
		}
		fmt.Fprintf(&b, "Q%d [%s]: %s\nCorrect/Expected: %s\nCandidate Answer: %s\n\n", i+1, q.Kind, q.Text, expected, answer)
	}

	return fmt.Sprintf(`I am looking for feedback on a %s test for the role of %s.
Here are the questions and the candidate's answers:

%s
Provide ONLY a textual summary of the candidate's performance.
CRITICAL INSTRUCTIONS:
1. Feedback MUST be 2-3 lines maximum.
2. Do NOT provide question-by-question analysis.
3. Focus only on overall strengths/weaknesses.
4. No markdown lists or long paragraphs. Just a short paragraph.

For 'multiple-choice', calculate score (1 point each).
For 'coding', evaluate the code correctness, efficiency, and logic (5 points each).
For 'interview', evaluate quality.

Response Format (JSON):
{
  "feedback": "Overall summary (max 40 words)...",
  "score": 15
}`, round, role, b.String())
}
