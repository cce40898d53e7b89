package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider is the interface for LLM enrichment backends.
type Provider interface {
	Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// FormatSetter is implemented by providers that can enforce a structured
// output schema. The Analyzer sets the enrichment schema before each call.
type FormatSetter interface {
	SetFormat(schema interface{})
}

// providerDefaults holds per-backend endpoint and timeout defaults.
var providerDefaults = map[string]struct {
	endpoint string
	timeout  time.Duration
}{
	"anthropic": {"https://api.anthropic.com/v1", 180 * time.Second},
	"openai":    {"https://api.openai.com/v1", 180 * time.Second},
	"ollama":    {"http://localhost:11434", 300 * time.Second}, // local models are slow
}

// NewProvider creates a Provider from configuration. An empty endpoint
// and a zero timeout use the per-backend defaults.
func NewProvider(provider, apiKey, model, endpoint string, timeoutSec int) (Provider, error) {
	defaults, ok := providerDefaults[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %q", provider)
	}
	if endpoint == "" {
		endpoint = defaults.endpoint
	}
	timeout := defaults.timeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch provider {
	case "anthropic":
		return &AnthropicProvider{apiKey: apiKey, model: model, endpoint: endpoint, client: client}, nil
	case "openai":
		return &OpenAIProvider{apiKey: apiKey, model: model, endpoint: endpoint, client: client}, nil
	default:
		return &OllamaProvider{model: model, endpoint: endpoint, client: client}, nil
	}
}

// postJSON sends the request body and returns the raw response body,
// failing on any non-200 status.
func postJSON(ctx context.Context, client *http.Client, url string, body interface{}, headers map[string]string, label string) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s API error %d: %s", label, resp.StatusCode, truncateAPIError(respBody))
	}
	return respBody, nil
}

// AnthropicProvider calls the Anthropic Messages API. Structured output
// is enforced through a forced tool_use call when a schema is set.
type AnthropicProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	schema   interface{} // nil = plain text mode
}

func (p *AnthropicProvider) SetFormat(schema interface{}) {
	p.schema = schema
}

func (p *AnthropicProvider) Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body := map[string]interface{}{
		"model":      p.model,
		"max_tokens": 4096,
		"system":     systemPrompt,
		"messages": []map[string]interface{}{
			{"role": "user", "content": userPrompt},
		},
	}
	if p.schema != nil {
		body["tools"] = []map[string]interface{}{
			{
				"name":         "record_triage",
				"description":  "Record the incident triage result as structured JSON",
				"input_schema": p.schema,
			},
		}
		body["tool_choice"] = map[string]string{"type": "tool", "name": "record_triage"}
	}

	respBody, err := postJSON(ctx, p.client, p.endpoint+"/messages", body, map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}, "anthropic")
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Type  string          `json:"type"`
			Text  string          `json:"text"`
			Input json.RawMessage `json:"input"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}

	// The tool_use block carries the structured result; text blocks are
	// the plain-text fallback.
	for _, block := range result.Content {
		if block.Type == "tool_use" && len(block.Input) > 0 {
			return string(block.Input), nil
		}
	}
	for _, block := range result.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no usable content block in anthropic response")
}

// OpenAIProvider calls the OpenAI chat completions API, which also
// covers OpenAI-compatible gateways.
type OpenAIProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func (p *OpenAIProvider) Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"response_format": map[string]string{"type": "json_object"},
		"max_tokens":      4096,
	}

	respBody, err := postJSON(ctx, p.client, p.endpoint+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}, "openai")
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return result.Choices[0].Message.Content, nil
}

// OllamaProvider calls a local Ollama server.
type OllamaProvider struct {
	model    string
	endpoint string
	client   *http.Client
	format   interface{} // JSON schema object, or the string "json"
}

func (p *OllamaProvider) SetFormat(schema interface{}) {
	p.format = schema
}

func (p *OllamaProvider) Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	format := p.format
	if format == nil {
		format = "json"
	}
	body := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"stream": false,
		"format": format,
	}

	respBody, err := postJSON(ctx, p.client, p.endpoint+"/api/chat", body, nil, "ollama")
	if err != nil {
		return "", err
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return result.Message.Content, nil
}

// truncateAPIError bounds error response bodies for diagnostics.
func truncateAPIError(body []byte) string {
	const maxLen = 512
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "... (truncated)"
}
