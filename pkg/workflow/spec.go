package workflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/uitestgen/pkg/flowgraph/errors"
	"github.com/randalmurphal/uitestgen/pkg/llm"
)

// Step names of the spec graph.
const (
	StepFetchReadme      = "fetch_readme"
	StepExtractLoginInfo = "extract_login_info"
	StepGenerateSpec     = "generate_spec"
)

// DefaultReadmeBaseURL serves raw repository files.
const DefaultReadmeBaseURL = "https://raw.githubusercontent.com"

var (
	githubRepoPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)`)
	imageURLPattern   = regexp.MustCompile(`!\[.*?\]\((https?://[^\s)]+)\)`)
)

// maxReadmeBytes bounds the README read into state.
const maxReadmeBytes = 1 << 20

// ReadmeURL maps a GitHub repository URL to the raw URL of its README on
// the master branch.
func ReadmeURL(base, githubURL string) (string, error) {
	m := githubRepoPattern.FindStringSubmatch(strings.TrimRight(githubURL, "/"))
	if m == nil {
		return "", fmt.Errorf("invalid GitHub URL %q", githubURL)
	}
	if base == "" {
		base = DefaultReadmeBaseURL
	}
	return fmt.Sprintf("%s/%s/%s/master/README.md", strings.TrimRight(base, "/"), m[1], m[2]), nil
}

// ImageURLs returns the URLs of the Markdown images in text, in order.
func ImageURLs(text string) []string {
	var out []string
	for _, m := range imageURLPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// specSteps binds the spec-extraction steps to their collaborators.
type specSteps struct {
	deps Deps
}

func (s *specSteps) fetchReadme(ctx flowgraph.Context, st State) (Update, error) {
	rawURL, err := ReadmeURL(s.deps.ReadmeBaseURL, st.GithubURL)
	if err != nil {
		return Update{}, flowgraph.NewStepError("fetch README", err)
	}

	var body string
	err = fgerrors.Do(ctx, s.deps.FetchRetry, func(ctx context.Context) error {
		b, getErr := s.get(ctx, rawURL)
		body = b
		return getErr
	})
	if err != nil {
		return Update{}, flowgraph.NewStepError(fmt.Sprintf("could not fetch README.md from %s", rawURL), err)
	}

	ctx.Logger().Info("README fetched", "url", rawURL, "bytes", len(body))
	return Update{Readme: flowgraph.Set(body)}, nil
}

func (s *specSteps) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.deps.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadmeBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fgerrors.NewHTTPError(resp, url)
	}
	return string(data), nil
}

func (s *specSteps) extractLoginInfo(ctx flowgraph.Context, st State) (Update, error) {
	if strings.TrimSpace(st.Readme) == "" {
		return Update{}, flowgraph.NewStepError("no README to extract login information from", nil)
	}

	images := noImagesText
	if urls := ImageURLs(st.Readme); len(urls) > 0 {
		images = strings.Join(urls, "\n")
	}

	resp, err := s.deps.Generator.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{llm.UserMessage(loginInfoPrompt.MustRender(map[string]string{
			"image_urls": images,
			"readme":     st.Readme,
		}))},
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		return Update{}, flowgraph.NewStepError("extract login information", err)
	}
	return Update{LoginContext: flowgraph.Set(strings.TrimSpace(resp.Content))}, nil
}

func (s *specSteps) generateSpec(ctx flowgraph.Context, st State) (Update, error) {
	if strings.TrimSpace(st.LoginContext) == "" {
		return Update{}, flowgraph.NewStepError("no login information to build a spec from", nil)
	}

	resp, err := s.deps.Generator.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{llm.UserMessage(specPrompt.MustRender(map[string]string{"login_info": st.LoginContext}))},
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		return Update{}, flowgraph.NewStepError("generate spec", err)
	}
	return Update{SpecMD: flowgraph.Set(strings.TrimSpace(resp.Content))}, nil
}
