package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const defaultVertexModel = "gemini-2.0-flash-001"

// VertexClient implements shortlist.Completer against the Vertex AI
// generative API for deployments authenticated with a GCP project instead
// of an API key.
type VertexClient struct {
	client *genai.Client
	model  string
}

func NewVertexClient(ctx context.Context, projectID, location, model string) (*VertexClient, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("vertex project id is required")
	}
	if location == "" {
		location = "us-central1"
	}
	if model == "" {
		model = defaultVertexModel
	}

	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}

	return &VertexClient{client: client, model: model}, nil
}

func (c *VertexClient) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("vertex returned empty response")
	}

	return output, nil
}

func (c *VertexClient) Close() error {
	return c.client.Close()
}
