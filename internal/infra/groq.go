package infra

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"

	evaluatorSystemPrompt = `You are a strict Asian mother. Your child wants more computer time.
Reply with an Asian accent.

Rules:
1. Valid excuses (homework, studying) = 15-30 mins.
2. Invalid excuses (games, generic begging) = 0-5 mins.
3. If they are annoying or greedy, set "slipper": true.

Output strictly valid JSON:
{
    "minutes": <int>,
    "reply": "<short_nagging_response>",
    "slipper": <bool>
}
Do not output anything else.`

	classifierSystemPrompt = `You are a strict but caring Asian mother. You are looking over your child's shoulder at their computer screen.
Based on the image, you will provide a short, nagging comment in an Asian accent and a productivity score.
If the activity is productive, be more encouraging in your comment, otherwise be stricter.

Productivity Score Scale:
-1.0: Very unproductive (games, social media, distractions).
 0.0: Neutral (idle, desktop, file explorer).
 1.0: Very productive (coding, studying, research, work).

Output strictly valid JSON:
{
    "reply": "<short_nagging_comment_in_accent>",
    "score": <float_between_-1_and_1>
}
Do not output anything else. Be concise.`

	classifierUserPrompt = "What is my child doing? Are they being productive?"
)

// GroqClient talks to the Groq OpenAI-compatible chat completions API.
// It implements both domain.ExcuseEvaluator (text model) and
// domain.ActivityClassifier (vision model).
type GroqClient struct {
	baseURL     string
	apiKey      string
	textModel   string
	visionModel string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewGroqClient creates a Groq API client.
func NewGroqClient(apiKey, textModel, visionModel string, logger *zap.Logger) *GroqClient {
	return &GroqClient{
		baseURL:     groqBaseURL,
		apiKey:      apiKey,
		textModel:   textModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		logger:      logger,
	}
}

// NewGroqClientWithBaseURL creates a client against a custom endpoint (for testing).
func NewGroqClientWithBaseURL(baseURL, apiKey, textModel, visionModel string, logger *zap.Logger) *GroqClient {
	c := NewGroqClient(apiKey, textModel, visionModel, logger)
	c.baseURL = baseURL
	return c
}

// Chat completions wire types. Content is any because vision messages carry
// a part list where text messages carry a plain string.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Evaluate submits an excuse to the text model and parses the verdict.
func (c *GroqClient) Evaluate(ctx context.Context, excuse string) (domain.Grant, error) {
	req := chatRequest{
		Model: c.textModel,
		Messages: []chatMessage{
			{Role: "system", Content: evaluatorSystemPrompt},
			{Role: "user", Content: excuse},
		},
		Temperature:    0.7,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	content, err := c.complete(ctx, req)
	if err != nil {
		return domain.Grant{}, err
	}

	var verdict struct {
		Minutes int    `json:"minutes"`
		Reply   string `json:"reply"`
		Slipper bool   `json:"slipper"`
	}
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return domain.Grant{}, fmt.Errorf("failed to parse verdict %q: %w", content, err)
	}

	return domain.Grant{
		Minutes:  verdict.Minutes,
		Reply:    verdict.Reply,
		Punitive: verdict.Slipper,
	}, nil
}

// Classify submits a screen capture to the vision model and parses the
// productivity assessment.
func (c *GroqClient) Classify(ctx context.Context, screenJPEG []byte) (domain.ActivityAssessment, error) {
	encoded := base64.StdEncoding.EncodeToString(screenJPEG)
	req := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{
			{Role: "system", Content: classifierSystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: classifierUserPrompt},
				{Type: "image_url", ImageURL: &imageURLPart{
					URL: "data:image/jpeg;base64," + encoded,
				}},
			}},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	content, err := c.complete(ctx, req)
	if err != nil {
		return domain.ActivityAssessment{}, err
	}

	var assessment struct {
		Reply string  `json:"reply"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(content), &assessment); err != nil {
		return domain.ActivityAssessment{}, fmt.Errorf("failed to parse assessment %q: %w", content, err)
	}

	return domain.ActivityAssessment{
		Reply: assessment.Reply,
		Score: assessment.Score,
	}, nil
}

// complete posts one chat completion and returns the first choice's content.
func (c *GroqClient) complete(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("api error: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("api returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// Ensure GroqClient implements both model-backed ports.
var (
	_ domain.ExcuseEvaluator    = (*GroqClient)(nil)
	_ domain.ActivityClassifier = (*GroqClient)(nil)
)
