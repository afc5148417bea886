// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package aigen is the boundary to the external AI content generation
// model. The model's behavior is out of scope; this package only defines
// the contract product writes rely on and a client for OpenAI-compatible
// endpoints. Generation failures degrade to empty output — a product
// write never fails because generation failed.
package aigen

import (
	"context"
	"fmt"
)

// Generation is one completed generation: the prompt sent and the model
// output, both preserved for the AI generation audit log.
type Generation struct {
	Prompt string
	Output string
}

// Generator produces product content from category and name.
type Generator interface {
	GenerateDescription(ctx context.Context, category, name string) (*Generation, error)
	GenerateImage(ctx context.Context, category, name string) (*Generation, error)
}

// descriptionSystemPrompt frames the chat model as a product copywriter.
const descriptionSystemPrompt = "You are product Content writer to give product very short description in 300 to 400 characters"

// descriptionPrompt builds the user prompt for a description generation.
func descriptionPrompt(category, name string) string {
	return fmt.Sprintf("Generate 300 to 400 characters professional marketing description for a %s product named %s. "+
		"Focus on benefits and unique selling points. Avoid technical jargon. Use markdown formatting.", category, name)
}

// imagePrompt builds the prompt for an image generation.
func imagePrompt(category, name string) string {
	return fmt.Sprintf("Generate image for %s product named %s. Add small text 'AI Generated Image' in the Image bottom", category, name)
}

// Disabled is the no-op generator used when AI generation is turned off.
// Both methods return empty generations.
type Disabled struct{}

// GenerateDescription implements Generator.
func (Disabled) GenerateDescription(ctx context.Context, category, name string) (*Generation, error) {
	return &Generation{}, nil
}

// GenerateImage implements Generator.
func (Disabled) GenerateImage(ctx context.Context, category, name string) (*Generation, error) {
	return &Generation{}, nil
}
