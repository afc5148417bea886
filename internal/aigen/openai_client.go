// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package aigen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Client generates product content through an OpenAI-compatible API.
// endpoint is the API base URL; /chat/completions and /images/generations
// are appended per call.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewClient creates a generation client.
func NewClient(endpoint, apiKey, model string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateDescription asks the chat model for a short marketing
// description.
func (c *Client) GenerateDescription(ctx context.Context, category, name string) (*Generation, error) {
	userPrompt := descriptionPrompt(category, name)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: descriptionSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	data, err := c.post(ctx, c.endpoint+"/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("generation API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("generation API returned no choices")
	}

	return &Generation{
		Prompt: "SystemPrompt: " + descriptionSystemPrompt + "; UserPrompt: " + userPrompt,
		Output: parsed.Choices[0].Message.Content,
	}, nil
}

// GenerateImage asks the image model for a product image and returns its
// URL.
func (c *Client) GenerateImage(ctx context.Context, category, name string) (*Generation, error) {
	prompt := imagePrompt(category, name)

	body, err := json.Marshal(imageRequest{Model: c.model, Prompt: prompt, N: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image request: %w", err)
	}

	data, err := c.post(ctx, c.endpoint+"/images/generations", body)
	if err != nil {
		return nil, err
	}

	var parsed imageResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode image response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("generation API error: %s", parsed.Error.Message)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("generation API returned no images")
	}

	return &Generation{Prompt: prompt, Output: parsed.Data[0].URL}, nil
}

// post issues one JSON POST and returns the raw response body.
func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation API returned status %d", resp.StatusCode)
	}
	return data, nil
}
