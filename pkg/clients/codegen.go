package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/helixworks/intake/pkg/models"
)

// Codegen calls the code-generation service, which turns a natural-language
// prompt into a renderable HTML document.
type Codegen struct {
	baseURL string
	client  *http.Client
}

// NewCodegen creates a client for the service at baseURL.
func NewCodegen(baseURL string) *Codegen {
	return &Codegen{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type regenerateSectionRequest struct {
	Code    string `json:"code"`
	Section string `json:"section"`
	Prompt  string `json:"prompt"`
}

type generateResponse struct {
	Code string `json:"code"`
}

// Generate produces an HTML document from a prompt.
func (c *Codegen) Generate(ctx context.Context, prompt string) (string, error) {
	var resp generateResponse

	err := postJSON(ctx, c.client, c.baseURL+"/generate", generateRequest{Prompt: prompt}, &resp)
	if err != nil {
		return "", err
	}

	return resp.Code, nil
}

// RegenerateSection rewrites one named section of an existing document.
func (c *Codegen) RegenerateSection(ctx context.Context, code, section, prompt string) (string, error) {
	var resp generateResponse

	err := postJSON(ctx, c.client, c.baseURL+"/generate/section", regenerateSectionRequest{
		Code:    code,
		Section: section,
		Prompt:  prompt,
	}, &resp)
	if err != nil {
		return "", err
	}

	return resp.Code, nil
}

// BuildSitePrompt assembles the generation prompt from the intake. The
// wording is stable so the same answers always produce the same prompt.
func BuildSitePrompt(a *models.Answers, s *models.Solution) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Build a landing page for a %s business (%s team) presenting the solution %q.\n",
		a.Industry, a.TeamSize, s.Name)
	fmt.Fprintf(&b, "Solution description: %s\n", s.Description)

	if len(s.Summary) > 0 {
		b.WriteString("Highlight these benefits:\n")

		for _, benefit := range s.Summary {
			fmt.Fprintf(&b, "- %s\n", benefit)
		}
	}

	if a.WorkflowNarrative != "" {
		fmt.Fprintf(&b, "The business describes its workflow as: %s\n", a.WorkflowNarrative)
	}

	return b.String()
}
