// Package advisor turns forecast results into short narrative summaries.
// With an OpenAI key configured it asks the model; without one it falls
// back to a templated summary built from the same numbers.
package advisor

import (
	"context"
	"fmt"
	"log"

	"foresight/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

type AdvisorService struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

// NewAdvisorService creates the service. llm may be nil, in which case
// every Explain call uses the templated fallback.
func NewAdvisorService(tracer trace.Tracer, llm LLMClient, model string) *AdvisorService {
	return &AdvisorService{
		tracer: tracer,
		llm:    llm,
		model:  model,
	}
}

// Explain produces a short narrative for a forecast. LLM failures degrade
// to the template rather than erroring; callers always get text back.
func (s *AdvisorService) Explain(ctx context.Context, result *domain.ForecastResult) string {
	ctx, span := s.tracer.Start(ctx, "advisor.explain")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", result.Symbol),
		attribute.String("timeframe", string(result.Timeframe)),
	)

	if s.llm == nil {
		return TemplateSummary(result)
	}

	reply, err := s.callLLM(ctx, result)
	if err != nil {
		span.RecordError(err)
		log.Printf("advisor LLM call failed for %s/%s: %v", result.Symbol, result.Timeframe, err)
		return TemplateSummary(result)
	}
	return reply
}

func (s *AdvisorService) callLLM(ctx context.Context, result *domain.ForecastResult) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.llm-call")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", s.model))

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(ForecastContext(result)),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}
	return completion.Choices[0].Message.Content, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
