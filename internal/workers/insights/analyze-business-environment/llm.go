package analyzebusinessenvironment

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"city-insights/internal/common/config"
	apperrors "city-insights/internal/common/errors"
	httpclient "city-insights/internal/common/http"
)

const responsesPath = "/v1/responses"

type responsesRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type responsesReply struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// text prefers the aggregated output_text and falls back to the first
// non-empty content part.
func (r *responsesReply) text() string {
	if strings.TrimSpace(r.OutputText) != "" {
		return r.OutputText
	}
	for _, item := range r.Output {
		for _, part := range item.Content {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

// ResponsesClient talks to an OpenAI-compatible Responses endpoint.
type ResponsesClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *httpclient.Client
}

func NewResponsesClient(cfg config.GenAIConfig, opts ...httpclient.Option) *ResponsesClient {
	opts = append([]httpclient.Option{
		httpclient.WithRetries(1, 500*time.Millisecond),
	}, opts...)
	return &ResponsesClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    httpclient.NewClient(config.GetDuration(cfg.Timeout), opts...),
	}
}

func (c *ResponsesClient) Model() string { return c.model }

func (c *ResponsesClient) Generate(ctx context.Context, prompt string) (string, error) {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var reply responsesReply
	err := c.http.PostJSON(ctx, c.baseURL+responsesPath, headers,
		responsesRequest{Model: c.model, Input: prompt}, &reply)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", apperrors.NewLLMTimeoutError()
		}
		return "", apperrors.NewLLMSynthesisFailedError(err)
	}

	text := reply.text()
	if text == "" {
		return "", apperrors.NewLLMSynthesisFailedError(errors.New("response contained no text"))
	}
	return text, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
