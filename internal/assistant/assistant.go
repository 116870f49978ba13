// Package assistant forwards chat prompts to the external AI service.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNotConfigured = errors.New("assistant not configured")
	ErrEmptyPrompt   = errors.New("empty prompt")
	ErrUpstream      = errors.New("assistant upstream error")
)

// Fallback is returned when the upstream answers without text.
const Fallback = "No response from server"

type Client struct {
	url  string
	http *http.Client
}

func New(url string, timeout time.Duration) *Client {
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

type request struct {
	UserPrompt string `json:"user_prompt"`
}

type reply struct {
	Response string `json:"response"`
	Message  string `json:"message"`
}

// Ask sends prompt and returns the assistant's answer.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.url == "" {
		return "", ErrNotConfigured
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	body, err := json.Marshal(request{UserPrompt: prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	var out reply
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	switch {
	case out.Response != "":
		return out.Response, nil
	case out.Message != "":
		return out.Message, nil
	}
	return Fallback, nil
}
