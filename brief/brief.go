// Package brief asks Gemini for a short commentary on a dashboard.
package brief

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/macro"
	"google.golang.org/genai"
)

// Model is the default Gemini model.
const Model = "gemini-2.5-flash"

const instruction = `
You are a macroeconomist writing for a busy reader.

You receive a US macro dashboard in markdown: latest values of employment,
inflation and interest rate series, short trends, and the economic calendar of
the next two weeks.

Write a briefing of at most 150 words, in markdown, with no title:
  - the state of the labor market and of inflation, quoting the figures,
  - what it means for the Fed's policy rate,
  - which upcoming events matter and why.

Only use the figures from the dashboard. Say so when a figure is unavailable.
`

// Generator is the part of the Gemini client used to produce content.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Analyst writes briefings.
type Analyst struct {
	Model string
	Gen   Generator
}

// New returns an Analyst on the Gemini API. The key is required.
func New(ctx context.Context, apiKey string) (*Analyst, error) {
	if apiKey == "" {
		return nil, &macro.FetchError{Provider: "gemini", ID: "brief", Err: fmt.Errorf("%w: GEMINI_API_KEY is not set", macro.ErrAuth)}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("cannot initialize Gemini's client: %w", err)
	}
	return &Analyst{Model: Model, Gen: client.Models}, nil
}

// Brief returns the commentary, in markdown, of the dashboard rendered in
// markdown.
func (a *Analyst) Brief(ctx context.Context, dashboard string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
	}
	resp, err := a.Gen.GenerateContent(ctx, a.Model, genai.Text(dashboard), config)
	if err != nil {
		return "", &macro.FetchError{Provider: "gemini", ID: a.Model, Err: fmt.Errorf("%w: %w", macro.ErrNetwork, err)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &macro.FetchError{Provider: "gemini", ID: a.Model, Err: macro.ErrEmptyResult}
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &macro.FetchError{Provider: "gemini", ID: a.Model, Err: macro.ErrEmptyResult}
	}
	return text, nil
}
