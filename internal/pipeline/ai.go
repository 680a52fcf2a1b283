package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jobtrail/jobtrail/internal/classify"
	"github.com/jobtrail/jobtrail/internal/mailbox"
)

const aiBodyLimit = 4000 // Bodies are truncated past this to keep prompts small

// AIExtractor asks Claude for a structured extraction and falls back to
// the rule-based path on any error or non-answer. Its output passes the
// same validity gate as the rules, so a wrong model answer can reject an
// email but never insert a record the rules-side gate would refuse.
type AIExtractor struct {
	client   anthropic.Client
	model    anthropic.Model
	fallback Extractor
}

func NewAIExtractor(apiKey, model string, fallback Extractor) *AIExtractor {
	m := anthropic.ModelClaude3_7SonnetLatest
	if model != "" {
		m = anthropic.Model(model)
	}
	return &AIExtractor{
		client:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:    m,
		fallback: fallback,
	}
}

func (e *AIExtractor) Name() string { return "ai" }

type aiAnswer struct {
	Company      string `json:"company"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	IsJobRelated bool   `json:"is_job_related"`
}

func (e *AIExtractor) Extract(ctx context.Context, email mailbox.Email) (*Extraction, error) {
	ext, err := e.extractWithAI(ctx, email)
	if err != nil {
		log.Printf("AI extraction failed, falling back to rules: %v", err)
		return e.fallback.Extract(ctx, email)
	}
	if ext == nil || !ext.JobRelated {
		// The model saying "not job related" is a weak negative; let the
		// deterministic patterns have the final word.
		return e.fallback.Extract(ctx, email)
	}
	return ext, nil
}

func (e *AIExtractor) extractWithAI(ctx context.Context, email mailbox.Email) (*Extraction, error) {
	body := email.Body
	if len(body) > aiBodyLimit {
		body = body[:aiBodyLimit] + "..."
	}

	prompt := buildExtractionPrompt(email.Subject, email.From, body)

	response, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       e.model,
		MaxTokens:   300,
		Temperature: anthropic.Float(0.1),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call model API: %w", err)
	}

	if len(response.Content) == 0 {
		return nil, fmt.Errorf("empty model response")
	}
	text := strings.TrimSpace(response.Content[0].AsText().Text)
	text = stripCodeFence(text)

	var answer aiAnswer
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	if !answer.IsJobRelated || answer.Company == "" || answer.Role == "" {
		return &Extraction{JobRelated: false}, nil
	}

	status := classify.Status(answer.Status)
	if !classify.ValidStatus(status) {
		status = classify.StatusPending
	}

	return &Extraction{
		Company:     strings.TrimSpace(answer.Company),
		Role:        classify.StandardizeRole(answer.Role),
		Status:      status,
		DateApplied: appliedDate(email.ReceivedAt),
		JobRelated:  true,
	}, nil
}

func buildExtractionPrompt(subject, sender, body string) string {
	return fmt.Sprintf(`Extract job application information from this email.
Subject: %s
Sender: %s
Body excerpt:
%s

Return ONLY a JSON object with these fields:
1. company: The company name (required)
2. role: The job title/role (required)
3. status: One of [Pending, Rejected, Interview, Assignment, Offer]
4. is_job_related: true/false - is this a job application email?

If you can't determine the company or role, or if this isn't a job-related email, set is_job_related to false.`,
		subject, sender, body)
}

// stripCodeFence removes a markdown code block wrapper if present
func stripCodeFence(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}
	return text
}
