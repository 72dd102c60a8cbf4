package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockClient struct {
	client *bedrockruntime.Client
	model  string
}

// NewBedrockClient builds an AgentClient backed by AWS Bedrock's Converse
// API. Region follows Config.Region, falling back to the AWS SDK's normal
// credential-chain resolution (env vars, shared config, instance role).
func NewBedrockClient(ctx context.Context, cfg Config) (AgentClient, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}

	return &bedrockClient{
		client: bedrockruntime.NewFromConfig(awsCfg),
		model:  model,
	}, nil
}

func (c *bedrockClient) Model() string { return c.model }

func (c *bedrockClient) Chat(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	system := req.SystemPrompt
	if req.Schema != nil {
		system += fmt.Sprintf("\n\nRespond with JSON only, matching this schema exactly: %v", req.Schema)
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.model),
		System:  []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: system}},
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: req.UserPrompt}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(maxTokens)),
		},
	}
	if req.Temperature != nil {
		input.InferenceConfig.Temperature = aws.Float32(float32(*req.Temperature))
	}

	start := time.Now()
	resp, err := c.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock converse: %w", err)
	}

	var promptTokens, completionTokens int
	if resp.Usage != nil {
		promptTokens = int(aws.ToInt32(resp.Usage.InputTokens))
		completionTokens = int(aws.ToInt32(resp.Usage.OutputTokens))
	}

	slog.DebugContext(ctx, "bedrock converse completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", promptTokens,
		"completion_tokens", completionTokens)

	output, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("bedrock converse: unexpected output type")
	}

	var content string
	for _, block := range output.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			content += text.Value
		}
	}

	return &Response{
		Content:          content,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}
