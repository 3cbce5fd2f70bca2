// Package rag hands informational questions off to the retrieval-and-answer
// collaborator. The engine does not inspect the answer.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"returns-service/internal/util"
)

// Answerer answers a plain-text policy or status question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// HTTPAnswerer calls the retrieval service over HTTP.
type HTTPAnswerer struct {
	url    string
	client *http.Client
}

// NewHTTPAnswerer creates an answerer against the configured endpoint
func NewHTTPAnswerer(url string) *HTTPAnswerer {
	return &HTTPAnswerer{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type answerRequest struct {
	Question string `json:"question"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

func (a *HTTPAnswerer) Answer(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(answerRequest{Question: question})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		util.RagAnswersTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("answerer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		util.RagAnswersTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("answerer returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed answerResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode answer: %w", err)
	}

	util.RagAnswersTotal.WithLabelValues("ok").Inc()
	return parsed.Answer, nil
}
