package chat

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"voice-emotion/emotion"

	"google.golang.org/genai"
)

// GeminiClient generates short natural-language interpretations of emotion
// predictions. It is optional: the server only constructs one when
// GEMINI_API_KEY is set, and it never sits on the prediction path.
type GeminiClient struct {
	client *genai.Client
	ctx    context.Context
}

const insightSystemPrompt = `You are an assistant for a voice emotion detection system.
Given a predicted emotion with its confidence and the probability distribution over all
emotion classes, write a short, friendly interpretation of the result for a non-technical
user. Mention the dominant emotion, how certain the model is, and any close runner-up.
Keep responses under 120 words. Do not give medical or psychological advice.`

func NewGeminiClient() (*GeminiClient, error) {
	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		ctx:    ctx,
	}, nil
}

// ExplainPrediction summarizes a valid prediction result in plain language.
func (g *GeminiClient) ExplainPrediction(result emotion.PredictionResult) (string, error) {
	if !result.Valid {
		return "", fmt.Errorf("cannot explain an invalid prediction")
	}
	return g.GenerateResponse(formatPrediction(result))
}

// GenerateResponse sends one message through the insight prompt.
func (g *GeminiClient) GenerateResponse(message string) (string, error) {
	systemInstruction := genai.NewContentFromText(insightSystemPrompt, genai.RoleModel)
	userContent := genai.NewContentFromText(message, genai.RoleUser)

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(float32(0.7)),
		TopP:              genai.Ptr(float32(0.8)),
		TopK:              genai.Ptr(float32(40)),
		MaxOutputTokens:   int32(160),
	}

	resp, err := g.client.Models.GenerateContent(
		g.ctx,
		"gemini-2.5-flash",
		[]*genai.Content{userContent},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "I'm sorry, I couldn't generate an interpretation for this prediction.", nil
	}

	return strings.ReplaceAll(text, "*", ""), nil
}

// formatPrediction renders the result as a compact prompt, with labels
// sorted by descending probability.
func formatPrediction(result emotion.PredictionResult) string {
	type labelProb struct {
		label string
		prob  float64
	}
	ranked := make([]labelProb, 0, len(result.Probabilities))
	for label, prob := range result.Probabilities {
		ranked = append(ranked, labelProb{label, prob})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].prob != ranked[j].prob {
			return ranked[i].prob > ranked[j].prob
		}
		return ranked[i].label < ranked[j].label
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Predicted emotion: %s (confidence %.1f%%).\nFull distribution:\n",
		result.Emotion, result.Confidence*100)
	for _, lp := range ranked {
		fmt.Fprintf(&b, "- %s: %.1f%%\n", lp.label, lp.prob*100)
	}
	return b.String()
}
