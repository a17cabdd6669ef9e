// Package bedrock sends model invocations through AWS Bedrock InvokeModel.
package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"career-backend/internal/llm"
)

// InvokeModelAPI is the subset of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client implements llm.Transport for Bedrock-hosted models.
type Client struct {
	api      InvokeModelAPI
	model    string
	provider llm.Provider
}

// New loads the default AWS config for region and returns a client for model.
func New(ctx context.Context, region, model string) (*Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAPI(bedrockruntime.NewFromConfig(cfg), model), nil
}

// NewWithAPI builds a client over an existing runtime API.
func NewWithAPI(api InvokeModelAPI, model string) *Client {
	return &Client{api: api, model: model, provider: llm.ProviderFor(model)}
}

// Provider returns the body shape selected for the model.
func (c *Client) Provider() llm.Provider {
	return c.provider
}

// Send implements llm.Transport.
func (c *Client) Send(ctx context.Context, inv llm.Invocation) (llm.Completion, error) {
	body, err := c.provider.BuildBody(inv)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("bedrock build body: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return llm.Completion{}, fmt.Errorf("bedrock invoke %s: %w", c.model, err)
	}
	if out == nil || len(out.Body) == 0 {
		return llm.Completion{}, llm.ErrEmptyResponse
	}

	completion, err := c.provider.ParseBody(out.Body)
	if err != nil {
		return llm.Completion{}, err
	}
	completion.Model = c.model
	return completion, nil
}

var _ llm.Transport = (*Client)(nil)
