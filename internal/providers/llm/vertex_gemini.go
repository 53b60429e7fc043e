package llm

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// Gemini chat turns must end on a user message; when the dialogue ends with
// the interviewer (forced hard-end turns), this nudge stands in for one.
const continueInstruction = "[Continue the interview according to your instructions.]"

func (v *VertexGemini) Continue(ctx context.Context, system string, history []Message) (string, error) {
	m := v.client.GenerativeModel(v.modelName)
	m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(system)}}
	m.SetTemperature(0.7)
	m.SetTopP(0.9)
	m.SetMaxOutputTokens(250)

	var send string
	if n := len(history); n > 0 && history[n-1].Role == RoleUser {
		send = history[n-1].Text
		history = history[:n-1]
	} else {
		send = continueInstruction
	}

	cs := m.StartChat()
	for i, msg := range history {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		// chat history must open with a user turn
		if i == 0 && role == "model" {
			cs.History = append(cs.History, &vertexgenai.Content{
				Role:  "user",
				Parts: []vertexgenai.Part{vertexgenai.Text("[The interview has started.]")},
			})
		}
		cs.History = append(cs.History, &vertexgenai.Content{
			Role:  role,
			Parts: []vertexgenai.Part{vertexgenai.Text(msg.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, vertexgenai.Text(send))
	if err != nil {
		return "", err
	}
	return extractText(resp), nil
}

func (v *VertexGemini) ScoreJSON(ctx context.Context, prompt string) (string, error) {
	m := v.client.GenerativeModel(v.modelName)
	m.SetTemperature(0.3)
	m.SetMaxOutputTokens(3000)
	m.GenerationConfig.ResponseMIMEType = "application/json"

	resp, err := m.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", err
	}
	return extractText(resp), nil
}

func extractText(resp *vertexgenai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(b.String())
}
