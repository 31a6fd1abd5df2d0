package ai

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/instaprep/instaprep-backend/internal/model"
)

// GeneratedSet is the outcome of question generation: the question list plus
// the model's suggested time limit in minutes.
type GeneratedSet struct {
	Questions        []model.Question
	TimeLimitMinutes int
}

// QuestionService generates role-specific question sets via the Gemini
// collaborator.
type QuestionService struct {
	client *Client
	log    zerolog.Logger
}

// NewQuestionService creates a QuestionService.
func NewQuestionService(client *Client, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		client: client,
		log:    log.With().Str("component", "ai_questions").Logger(),
	}
}

// questionPayload is the shape we ask the model to return.
type questionPayload struct {
	Questions    []model.Question `json:"questions"`
	ExpectedTime float64          `json:"expectedTime"`
}

// Generate produces a question set for the given role and round.
// For the OA round, param is the item count; for interview rounds it is the
// session duration in minutes, converted to a question count at roughly three
// minutes per technical question and two per behavioral one.
func (s *QuestionService) Generate(ctx context.Context, role string, round model.RoundType, param int, difficulty string) (*GeneratedSet, error) {
	if param <= 0 {
		param = 20
	}
	if difficulty == "" {
		difficulty = "Medium"
	}

	count := param
	if round != model.RoundOA {
		minsPerQ := 2
		if round == model.RoundTech1 || round == model.RoundTech2 {
			minsPerQ = 3
		}
		count = param / minsPerQ
		if count < 3 {
			count = 3
		}
	}

	prompt := buildGenerationPrompt(role, round, count, difficulty)

	text, err := s.client.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	var payload questionPayload
	if err := ExtractJSON(text, &payload); err != nil {
		// The model sometimes returns a bare array of questions.
		var bare []model.Question
		if arrErr := ExtractJSON(text, &bare); arrErr == nil && len(bare) > 0 {
			payload = questionPayload{Questions: bare}
		} else {
			return nil, err
		}
	}

	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("%w: missing questions array", ErrMalformedResponse)
	}

	// Default the kind when the model omits it.
	for i := range payload.Questions {
		if payload.Questions[i].Kind == "" {
			if round == model.RoundOA {
				payload.Questions[i].Kind = model.QuestionKindMultipleChoice
			} else {
				payload.Questions[i].Kind = model.QuestionKindTechnical
			}
		}
	}

	// Time limit direct from the model; fallback to the requested param
	// when missing or zero, never below 20 minutes.
	limit := int(math.Round(payload.ExpectedTime))
	if limit <= 0 {
		limit = param
		if limit < 20 {
			limit = 20
		}
	}

	s.log.Info().
		Str("role", role).
		Str("round", string(round)).
		Int("questions", len(payload.Questions)).
		Int("time_limit_min", limit).
		Msg("Question set generated")

	return &GeneratedSet{
		Questions:        payload.Questions,
		TimeLimitMinutes: limit,
	}, nil
}

// buildGenerationPrompt assembles the per-round prompt. The response format
// footer matches what the extraction layer expects.
func buildGenerationPrompt(role string, round model.RoundType, count int, difficulty string) string {
	var system, user string

	switch round {
	case model.RoundOA:
		codingCount := 0
		if count > 30 {
			codingCount = 2
		} else if count > 15 {
			codingCount = 1
		}
		mcqCount := count - codingCount

		system = fmt.Sprintf(`You are an expert Online Assessment (OA) creator. Generate a screening test for %s.
Difficulty: %s.
Source: Competitive Programming (Codeforces/LeetCode) + CS Fundamentals (GATE/Placement Papers).

Structure:
- Total Items: EXACTLY %d.
- Coding Challenges: EXACTLY %d (Data Structures & Algorithms).
- MCQs: EXACTLY %d (CS Basics, OOP, DBMS, Debugging, Aptitude).

CRITICAL:
1. Coding questions MUST include 'codeSnippet', 'testCases', and 'constraints'.
2. Coding questions must be at the END of the list.`, role, difficulty, count, codingCount, mcqCount)
		user = fmt.Sprintf("Generate %d OA items for %s. JSON Format.", count, role)

	case model.RoundTech1:
		system = fmt.Sprintf(`You are a Technical Interviewer (Round 1). Generate %d core technical questions for %s.
Focus:
- Programming Basics (Python/Java/C++)
- DSA (Arrays, Strings, Trees, Recursion)
- Basic System Design

CRITICAL:
1. If a question requires writing code (e.g., "Write a function to..."), set "type": "coding" and provide "codeSnippet".
2. Mix of conceptual and problem-solving questions.`, count, role)
		user = fmt.Sprintf("Generate %d Round 1 interview questions for %s. JSON Format.", count, role)

	case model.RoundTech2:
		system = fmt.Sprintf(`You are a Senior Technical Interviewer (Round 2). Generate %d %s Level questions for %s.
Focus:
- Project Deep Dives (Optimization, Scalability)
- Edge Cases & Complex Logic
- Advanced DSA or Framework internals

CRITICAL:
1. Questions should be open-ended but specific.
2. Include 1-2 "Live Coding" scenarios (set "type": "coding").`, count, difficulty, role)
		user = fmt.Sprintf("Generate %d Round 2 interview questions for %s. JSON Format.", count, role)

	case model.RoundBehavioral:
		system = fmt.Sprintf(`You are a Hiring Manager. Generate %d behavioral questions for %s.
Focus: Culture, Team Conflicts, Leadership, Failures.

CRITICAL:
1. The FIRST question MUST be EXACTLY: "Tell me about yourself and your background."
2. Questions should be situational (STAR method).`, count, role)
		user = fmt.Sprintf("Generate %d behavioral interview questions. JSON Format.", count)

	case model.RoundHR:
		system = fmt.Sprintf(`You are an HR Manager. Generate %d HR round questions.
Focus: Salary, Relocation, Policy, Joining Date, Career Goals.

CRITICAL:
1. Keep questions professional and standard for an HR discussion.`, count)
		user = fmt.Sprintf("Generate %d HR questions. JSON Format.", count)
	}

	footer := `Response Format (JSON): { "questions": [ { "question": "...", "type": "technical"|"coding"|"behavioral"|"multiple-choice", "options": [], "correctAnswer": "...", "explanation": "...", "codeSnippet": "..." } ], "expectedTime": 15 }
CRITICAL: Calculate expectedTime based on difficulty. Return just the number in minutes.`

	return system + "\n\n" + user + "\n\n" + footer
}
