package intent

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = `You route messages for a crypto token betting bot. Reply with a single JSON object and nothing else.
Schema: {"kind": "trending" | "bet" | "leaderboard" | "bets" | "unknown", "chain": "ethereum" | "solana" | "bnb" | ""}
- trending: the user wants the trending tokens of a chain; set chain.
- bet: the user wants to place a bet.
- leaderboard: the user asks who is winning or for rankings.
- bets: the user asks about their own bets.
- unknown: anything else.`

type OpenAIClassifier struct {
	Client *openai.Client
	Model  string
	Log    *zap.Logger
}

func NewOpenAIClassifier(apiKey, baseURL, model string, log *zap.Logger) *OpenAIClassifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAIClassifier{
		Client: openai.NewClientWithConfig(cfg),
		Model:  model,
		Log:    log,
	}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return Intent{}, fmt.Errorf("classify intent: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Intent{}, fmt.Errorf("classify intent: empty completion")
	}

	reply := resp.Choices[0].Message.Content
	intent := Parse(reply)
	c.Log.Debug("intent classified", zap.String("kind", string(intent.Kind)), zap.Any("params", intent.Params))
	return intent, nil
}
