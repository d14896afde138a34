package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const githubUserAgent = "agent-launchpad"

// CryptoFundingKeywords is the fixed signal set used to classify a repo as
// crypto-friendly.
var CryptoFundingKeywords = []string{"bitcoin", "lightning", "btc", "crypto", "ethereum", "monad"}

// DetectCryptoFunding runs the keyword classifier over concatenated repo
// content and returns the matched signals. Exposed so the runtime's fan-out
// analysis step and the tool share one implementation.
func DetectCryptoFunding(readme, fundingFile string) (bool, []string) {
	content := strings.ToLower(readme + fundingFile)
	var signals []string
	for _, keyword := range CryptoFundingKeywords {
		if strings.Contains(content, keyword) {
			signals = append(signals, keyword)
		}
	}
	return len(signals) > 0, signals
}

// RegisterGitHubTools adds the GitHub read-only tools: raw file fetches, the
// crypto-funding classifier and the three search endpoints.
func RegisterGitHubTools(r *Registry, client *http.Client) {
	fetchRaw := func(ctx context.Context, repo, path string) (any, error) {
		if repo == "" {
			return nil, fmt.Errorf("repo is required")
		}
		rawURL := fmt.Sprintf("https://raw.githubusercontent.com/%s/master/%s", repo, path)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		res, err := client.Do(req)
		if err != nil {
			// Missing files are not an error for the analysis flow.
			return nil, nil
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, nil
		}
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, nil
		}
		return string(body), nil
	}

	r.Register("github.fetchReadme", func(ctx context.Context, input map[string]any) (any, error) {
		return fetchRaw(ctx, stringInput(input, "repo"), "README.md")
	})

	r.Register("github.fetchFundingFile", func(ctx context.Context, input map[string]any) (any, error) {
		return fetchRaw(ctx, stringInput(input, "repo"), ".github/FUNDING.yml")
	})

	r.Register("github.detectCryptoFunding", func(ctx context.Context, input map[string]any) (any, error) {
		accepts, signals := DetectCryptoFunding(stringInput(input, "readme"), stringInput(input, "fundingFile"))
		return map[string]any{
			"acceptsCrypto": accepts,
			"signals":       signals,
		}, nil
	})

	search := func(ctx context.Context, endpoint, query, sort string) (map[string]any, error) {
		searchURL := fmt.Sprintf("https://api.github.com/search/%s?q=%s&sort=%s&order=desc",
			endpoint, url.QueryEscape(query), sort)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", githubUserAgent)
		req.Header.Set("Accept", "application/vnd.github.v3+json")

		res, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("GitHub API error: %d %s", res.StatusCode, res.Status)
		}
		var data map[string]any
		if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
			return nil, err
		}
		return data, nil
	}

	items := func(data map[string]any) []map[string]any {
		raw, _ := data["items"].([]any)
		if len(raw) > 10 {
			raw = raw[:10]
		}
		out := make([]map[string]any, 0, len(raw))
		for _, entry := range raw {
			if m, ok := entry.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}

	r.Register("github.searchRepositories", func(ctx context.Context, input map[string]any) (any, error) {
		data, err := search(ctx, "repositories", stringInput(input, "query"), "stars")
		if err != nil {
			return nil, err
		}
		var repos []map[string]any
		for _, item := range items(data) {
			repos = append(repos, map[string]any{
				"name":        item["full_name"],
				"description": item["description"],
				"stars":       item["stargazers_count"],
				"url":         item["html_url"],
			})
		}
		return map[string]any{"repos": repos}, nil
	})

	r.Register("github.searchIssues", func(ctx context.Context, input map[string]any) (any, error) {
		// Default to issues, not PRs.
		data, err := search(ctx, "issues", stringInput(input, "query")+" type:issue", "created")
		if err != nil {
			return nil, err
		}
		var issues []map[string]any
		for _, item := range items(data) {
			var labels []any
			if rawLabels, ok := item["labels"].([]any); ok {
				for _, l := range rawLabels {
					if lm, ok := l.(map[string]any); ok {
						labels = append(labels, lm["name"])
					}
				}
			}
			issues = append(issues, map[string]any{
				"title":  item["title"],
				"url":    item["html_url"],
				"repo":   item["repository_url"],
				"labels": labels,
			})
		}
		return map[string]any{"issues": issues}, nil
	})

	r.Register("github.searchUsers", func(ctx context.Context, input map[string]any) (any, error) {
		data, err := search(ctx, "users", stringInput(input, "query"), "followers")
		if err != nil {
			return nil, err
		}
		var users []map[string]any
		for _, item := range items(data) {
			users = append(users, map[string]any{
				"login":  item["login"],
				"url":    item["html_url"],
				"avatar": item["avatar_url"],
				"type":   item["type"],
			})
		}
		return map[string]any{"users": users}, nil
	})
}
