package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"github.com/instaprep/instaprep-backend/internal/model"
)

// RunResult is the simulated execution outcome for a coding answer.
type RunResult struct {
	Passed bool   `json:"passed"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// CodeRunner simulates code execution against a question's test cases via the
// Gemini collaborator. There is no real sandbox; the model acts as compiler
// and tester.
type CodeRunner struct {
	client *Client
	log    zerolog.Logger
}

// NewCodeRunner creates a CodeRunner.
func NewCodeRunner(client *Client, log zerolog.Logger) *CodeRunner {
	return &CodeRunner{
		client: client,
		log:    log.With().Str("component", "ai_coderunner").Logger(),
	}
}

// Run executes the candidate's code against the question. Blank code fails
// fast without a network call.
func (r *CodeRunner) Run(ctx context.Context, code, language string, question model.Question) RunResult {
	if strings.TrimSpace(code) == "" {
		return RunResult{Passed: false, Output: "", Error: "No code provided"}
	}
	if language == "" {
		language = "javascript"
	}

	testCases, _ := json.Marshal(question.TestCases)
	constraints := question.Constraints
	if constraints == "" {
		constraints = "None"
	}

	prompt := "Act as a code compiler and tester.\n" +
		"Question: " + question.Text + "\n" +
		"Constraints: " + constraints + "\n" +
		"Test Cases: " + string(testCases) + "\n\n" +
		"Candidate Code (" + language + "):\n" + code + "\n\n" +
		`Task:
1. Analyze if the code solves the problem correctly.
2. "Run" the code against the provided test cases (simulate execution).
3. Check for syntax errors or logic bugs.

Response Format (JSON):
{
  "passed": true/false,
  "output": "Output of the run (e.g., 'Test Case 1: Passed, Test Case 2: Passed')",
  "error": "Error message if any, else null"
}`

	text, err := r.client.GenerateText(ctx, prompt)
	if err != nil {
		r.log.Warn().Err(err).Msg("Code-run call failed")
		return RunResult{Passed: false, Output: "", Error: "Compiler Service Unavailable"}
	}

	var result RunResult
	if err := ExtractJSON(text, &result); err != nil {
		return RunResult{
			Passed: false,
			Output: "Raw Output: " + strings.TrimSpace(text),
			Error:  "Failed to parse compiler response",
		}
	}
	return result
}
