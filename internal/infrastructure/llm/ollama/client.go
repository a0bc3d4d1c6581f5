package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ykudinov/docrouter/internal/core/domain"
	"github.com/ykudinov/docrouter/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithExecutor enables transport-level retry and breaker handling.
// Contract violations stay non-retryable regardless.
func (c *Client) WithExecutor(executor *resilience.Executor) *Client {
	c.executor = executor
	return c
}

// Advisor asks the reasoning collaborator where a document belongs. The
// response is parsed strictly; any deviation from the wire contract is a
// contract violation, never coerced into validity.
type Advisor struct {
	client *Client
}

func NewAdvisor(client *Client) *Advisor {
	return &Advisor{client: client}
}

// decisionWire mirrors the routing decision contract. Pointer fields let
// us distinguish a missing required field from a zero value.
type decisionWire struct {
	Matched        *bool    `json:"matched"`
	SelectedPath   *string  `json:"selectedPath"`
	Confidence     *float64 `json:"confidence"`
	Reason         *string  `json:"reason"`
	NeedsNewFolder *bool    `json:"needsNewFolder"`
	SuggestedPath  *string  `json:"suggestedPath"`
}

func (a *Advisor) Advise(ctx context.Context, text string, candidates []string) (domain.RoutingDecision, error) {
	raw, err := a.client.generateJSON(ctx, "route", buildRoutingPrompt(text, candidates))
	if err != nil {
		return domain.RoutingDecision{}, err
	}
	return parseDecision(raw)
}

func parseDecision(raw string) (domain.RoutingDecision, error) {
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.DisallowUnknownFields()

	var wire decisionWire
	if err := decoder.Decode(&wire); err != nil {
		return domain.RoutingDecision{}, domain.WrapError(domain.ErrContractViolation, "parse decision", err)
	}
	if decoder.More() {
		return domain.RoutingDecision{}, domain.WrapError(domain.ErrContractViolation, "parse decision",
			fmt.Errorf("surrounding content after decision object"))
	}
	if wire.Matched == nil || wire.Confidence == nil || wire.Reason == nil || wire.NeedsNewFolder == nil {
		return domain.RoutingDecision{}, domain.WrapError(domain.ErrContractViolation, "parse decision",
			fmt.Errorf("missing required field"))
	}

	decision := domain.RoutingDecision{
		Matched:        *wire.Matched,
		Confidence:     *wire.Confidence,
		Reason:         *wire.Reason,
		NeedsNewFolder: *wire.NeedsNewFolder,
	}
	if wire.SelectedPath != nil {
		decision.SelectedPath = strings.TrimSpace(*wire.SelectedPath)
	}
	if wire.SuggestedPath != nil {
		decision.SuggestedPath = strings.TrimSpace(*wire.SuggestedPath)
	}
	return decision, nil
}

// Summarizer produces the per-language report summaries.
type Summarizer struct {
	client *Client
}

func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

func (s *Summarizer) Summarize(ctx context.Context, text, lang string) (string, error) {
	return s.client.generateText(ctx, "summarize", buildSummaryPrompt(text, lang))
}

func (c *Client) generateJSON(ctx context.Context, operation, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, operation, reqBody)
}

func (c *Client) generateText(ctx context.Context, operation, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}
	return c.generate(ctx, operation, reqBody)
}

func (c *Client) generate(ctx context.Context, operation string, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, operation); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	call := func(callCtx context.Context) error {
		return c.doPostJSON(callCtx, path, payload, out, operation)
	}
	if c.executor != nil {
		err := c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
		return wrapTemporaryIfNeeded(operation, err)
	}
	return call(ctx)
}

func (c *Client) doPostJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newHTTPStatusError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
