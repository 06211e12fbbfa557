package llm

import (
	"context"
	"fmt"
	"log"

	"querymind/domain/result"
	"querymind/domain/sqltext"
	"querymind/ports"
)

// GeneratorAdapter implements ports.SQLGenerator using a completion service.
type GeneratorAdapter struct {
	config    Config
	llmClient ports.CompletionClient
}

// NewGeneratorAdapter creates a new LLM SQL generator adapter
func NewGeneratorAdapter(config Config) (*GeneratorAdapter, error) {
	client, err := newLLMClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return &GeneratorAdapter{config: config, llmClient: client}, nil
}

// NewGeneratorAdapterWithClient wires an explicit client (tests, shared client).
func NewGeneratorAdapterWithClient(config Config, client ports.CompletionClient) *GeneratorAdapter {
	return &GeneratorAdapter{config: config, llmClient: client}
}

// GenerateSQL produces first-pass SQL for the question. The raw completion
// is stripped of markdown fences; a query that fails the shallow validity
// check is rejected here rather than sent to the executor.
func (g *GeneratorAdapter) GenerateSQL(ctx context.Context, question string, schema *result.Schema) (string, error) {
	prompt := buildGenerationPrompt(question, schema)

	raw, err := g.llmClient.ChatCompletion(ctx, g.config.Model, prompt, g.config.MaxTokens)
	if err != nil {
		return "", fmt.Errorf("sql generation failed: %w", err)
	}

	sql := sqltext.CleanGenerated(raw)
	if !sqltext.Validate(sql) {
		log.Printf("[GeneratorAdapter] generated SQL failed validity check: %q", sql)
		return "", fmt.Errorf("generated SQL is not a valid query: %q", sql)
	}
	return sql, nil
}
