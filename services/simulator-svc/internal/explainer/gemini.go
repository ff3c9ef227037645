package explainer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"pagesim/pkg/apperror"
	"pagesim/pkg/config"
	"pagesim/pkg/logger"
)

const maxErrorBody = 512

// GeminiClient клиент generateContent API
type GeminiClient struct {
	endpoint       string
	apiKey         string
	httpClient     *http.Client
	maxAttempts    int
	initialBackoff time.Duration
}

// GeminiOption - опция клиента
type GeminiOption func(*GeminiClient)

// WithHTTPClient подменяет HTTP клиент
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiClient) {
		g.httpClient = c
	}
}

// NewGeminiClient создаёт клиент по конфигурации
func NewGeminiClient(cfg config.ExplainerConfig, opts ...GeminiOption) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := cfg.InitialBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	c := &GeminiClient{
		endpoint:       cfg.Endpoint,
		apiKey:         cfg.APIKey,
		httpClient:     &http.Client{Timeout: timeout},
		maxAttempts:    attempts,
		initialBackoff: backoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate отправляет запрос с повторами и экспоненциальной паузой между попытками.
// Повторяются сетевые ошибки, 429, 5xx и ответы без текста.
func (c *GeminiClient) Generate(ctx context.Context, p Prompt) (string, error) {
	body, err := json.Marshal(newGeminiRequest(p))
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeInternal, "failed to encode prompt")
	}

	target, err := c.requestURL()
	if err != nil {
		return "", err
	}

	log := logger.FromContext(ctx)
	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.initialBackoff))

	var (
		text    string
		attempt int
	)
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out, err := c.call(ctx, target, body)
		if err != nil {
			log.Warn("text generation attempt failed",
				"attempt", attempt,
				"kind", string(p.Kind),
				"error", err,
			)
			if transient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", classify(err, attempt)
	}

	return text, nil
}

func newGeminiRequest(p Prompt) geminiRequest {
	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: p.User}}}},
	}
	if p.System != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: p.System}}}
	}
	return req
}

func (c *GeminiClient) requestURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("invalid explainer endpoint %q", c.endpoint), "explainer.endpoint")
	}
	if c.apiKey != "" {
		q := u.Query()
		q.Set("key", c.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *GeminiClient) call(ctx context.Context, target string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", apperror.FromHTTPStatus(resp.StatusCode, string(snippet))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperror.Wrap(err, apperror.CodeUnavailable, "malformed response from text generator")
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		return "", apperror.New(apperror.CodeUnavailable, "response structure unexpected or text missing")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// transient - стоит ли повторять запрос
func transient(err error) bool {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr.Code == apperror.CodeUnavailable || appErr.Code == apperror.CodeTimeout
	}
	// сетевые ошибки http.Client
	return !errors.Is(err, context.Canceled)
}

func classify(err error, attempts int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(err, apperror.CodeTimeout, "text generation timed out").
			WithDetails("attempts", attempts)
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Code != apperror.CodeUnavailable && appErr.Code != apperror.CodeTimeout {
		return appErr.WithDetails("attempts", attempts)
	}
	return apperror.Wrap(err, apperror.CodeUnavailable,
		fmt.Sprintf("text generation failed after %d attempts", attempts)).
		WithDetails("attempts", attempts)
}
