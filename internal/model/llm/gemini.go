package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// GeminiClient Google Gemini 客户端
type GeminiClient struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
	client   *resty.Client
}

// NewGeminiClient 创建新的 Gemini 客户端（base 优先用 GEMINI_BASE_URL 环境变量）
func NewGeminiClient(model, apiKey string) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}

	baseURL := "https://generativelanguage.googleapis.com/v1"
	if envURL := os.Getenv("GEMINI_BASE_URL"); envURL != "" {
		baseURL = envURL
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	return &GeminiClient{
		provider: "gemini",
		model:    model,
		apiKey:   apiKey,
		baseURL:  baseURL,
		client:   client,
	}, nil
}

// Generate 生成文本
func (c *GeminiClient) Generate(prompt string, options GenerateOptions) (string, error) {
	return c.GenerateWithContext(context.Background(), prompt, options)
}

// GenerateWithContext 使用上下文生成文本
func (c *GeminiClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	return c.ChatWithContext(ctx, []Message{{Role: "user", Content: prompt}}, options)
}

// Chat 聊天
func (c *GeminiClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

// ChatWithContext 使用上下文聊天（Gemini 角色只认 user/model，assistant 需转换）
func (c *GeminiClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	contents := make([]map[string]interface{}, len(messages))
	for i, msg := range messages {
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		contents[i] = map[string]interface{}{
			"role": role,
			"parts": []map[string]string{
				{"text": msg.Content},
			},
		}
	}

	generationConfig := map[string]interface{}{
		"temperature":     options.Temperature,
		"maxOutputTokens": options.MaxTokens,
		"topP":            options.TopP,
	}
	if len(options.Stop) > 0 {
		generationConfig["stopSequences"] = options.Stop
	}

	request := map[string]interface{}{
		"contents":         contents,
		"generationConfig": generationConfig,
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(request).
		Post(fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model))

	if err != nil {
		return "", fmt.Errorf("调用 Gemini API failed: %w", err)
	}

	if response.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("Gemini API 返回错误: %s", response.String())
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return "", fmt.Errorf("解析 Gemini 响应failed: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini API 没有返回文本")
	}

	content := result.Candidates[0].Content.Parts[0].Text
	recordTokenMetrics(messages, content)
	return content, nil
}

// Model 返回模型名称
func (c *GeminiClient) Model() string {
	return c.model
}

// Provider 返回提供商名称
func (c *GeminiClient) Provider() string {
	return c.provider
}

// SetModel 设置模型
func (c *GeminiClient) SetModel(model string) {
	c.model = model
}

// SetAPIKey 设置 API Key
func (c *GeminiClient) SetAPIKey(apiKey string) {
	c.apiKey = apiKey
}
