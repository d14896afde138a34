package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/ericgreene/go-serp"
	openai "github.com/sashabaranov/go-openai"
)

// stringInput reads a string field from a tool input object.
func stringInput(input map[string]any, key string) string {
	if input == nil {
		return ""
	}
	s, _ := input[key].(string)
	return s
}

// RegisterHTTPTool adds the generic http.get tool: fetch a URL and decode
// the JSON body.
func RegisterHTTPTool(r *Registry, client *http.Client) {
	r.Register("http.get", func(ctx context.Context, input map[string]any) (any, error) {
		url := stringInput(input, "url")
		if url == "" {
			return nil, fmt.Errorf("url is required")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		res, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		var body any
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return nil, err
		}
		return body, nil
	})
}

// RegisterLLMTool adds llm.generate. Without an API key it returns mock
// output so the demo runs offline.
func RegisterLLMTool(r *Registry, apiKey string) {
	var client *openai.Client
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, llm.generate will use mock responses")
	} else {
		client = openai.NewClient(apiKey)
	}

	r.Register("llm.generate", func(ctx context.Context, input map[string]any) (any, error) {
		prompt := stringInput(input, "prompt")
		if prompt == "" {
			prompt = "No prompt"
		}
		if client == nil {
			return map[string]any{
				"content": fmt.Sprintf("[Mock LLM Output for: %s]", prompt),
			}, nil
		}
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: openai.GPT3Dot5Turbo,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("empty completion response")
		}
		return map[string]any{"content": resp.Choices[0].Message.Content}, nil
	})
}

// RegisterSearchTool adds web.search backed by the SERP API.
func RegisterSearchTool(r *Registry, apiKey string) {
	if apiKey == "" {
		log.Println("Warning: SERP_API_KEY not set, web.search will be disabled")
	}

	r.Register("web.search", func(ctx context.Context, input map[string]any) (any, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("SERP_API_KEY not set")
		}
		query := stringInput(input, "query")
		if query == "" {
			return nil, fmt.Errorf("query is required")
		}
		maxResults := 5
		if n, ok := input["num"].(float64); ok && n > 0 {
			maxResults = int(n)
		}

		parameter := map[string]string{
			"q":   query,
			"key": apiKey,
			"num": strconv.Itoa(maxResults),
		}
		search := serp.NewGoogleSearch(parameter)
		results, err := search.GetJSON()
		if err != nil {
			return nil, err
		}

		var items []map[string]any
		for _, result := range results.OrganicResults {
			items = append(items, map[string]any{
				"title":   result.Title,
				"snippet": result.Snippet,
				"link":    result.Link,
			})
		}
		return map[string]any{"results": items}, nil
	})
}
