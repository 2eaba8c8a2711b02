package openai

import (
	"sync"

	"github.com/readingbooks/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client implements the ai.Client interface against an OpenAI-compatible
// chat completion API.
type Client struct {
	extractionModel string

	chatURL string
	chatKey string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewClientParams contains configuration options for creating a new Client.
//
// ExtractionModel specifies the model used for information extraction.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL uses the official OpenAI endpoint.
type NewClientParams struct {
	ExtractionModel string

	ChatURL string
	ChatKey string
}

// NewClient creates and returns a new OpenAI-backed model client configured
// with the provided parameters.
func NewClient(params NewClientParams) *Client {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)

	return &Client{
		extractionModel: params.ExtractionModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient: chatClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
