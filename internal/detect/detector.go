// Package detect wraps a vision-capable chat model to extract book
// titles from a bookshelf photo.
package detect

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
)

const titlePrompt = "Your task is to identify book titles from the provided image of a bookshelf. " +
	"Focus ONLY on the text that represents book titles on the spines or covers. " +
	"List each distinct book title you can clearly identify on a new line. " +
	"Do NOT include author names unless they are undeniably part of the main title. " +
	"Do NOT include publisher logos or series names unless part of the title. " +
	"Provide ONLY the list of titles, with no introduction, explanation, numbering, or formatting like bullet points."

// Titles shorter or longer than this are treated as noise rather than
// real book titles.
const (
	minTitleLen = 4
	maxTitleLen = 149
)

// Result is the outcome of a detection attempt. Failed results carry a
// human-readable reason; the pipeline continues regardless, so Detect
// never returns an error.
type Result struct {
	Titles []string
	Failed bool
	Reason string
}

func failed(reason string) Result {
	return Result{Titles: []string{}, Failed: true, Reason: reason}
}

// Detector calls the vision model over the OpenAI-compatible chat API.
type Detector struct {
	client *openai.Client
	model  string
}

func New(apiKey, model string) *Detector {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Detector{client: openai.NewClient(apiKey), model: model}
}

// NewWithConfig builds a detector against a custom endpoint. Tests use
// it to point at a stub server.
func NewWithConfig(cfg openai.ClientConfig, model string) *Detector {
	return &Detector{client: openai.NewClientWithConfig(cfg), model: model}
}

// Detect submits the image with the title-extraction prompt and
// post-processes the response into one title per line.
func (d *Detector) Detect(ctx context.Context, image []byte, contentType string) Result {
	if d == nil || d.client == nil {
		return failed("Image analysis service is not available")
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image))
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: titlePrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("detect: model call failed: %v", err)
		return failed("Image analysis request failed")
	}
	if len(resp.Choices) == 0 {
		return failed("Image analysis returned no response")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return failed("Image analysis was blocked by the content filter")
	}

	titles := parseTitles(choice.Message.Content)
	if len(titles) == 0 {
		return failed("No book titles identified in the image")
	}
	return Result{Titles: titles}
}

// parseTitles splits the raw model output into candidate titles:
// one per line, trimmed, empties dropped, and length-bounded to filter
// obvious garbage lines.
func parseTitles(raw string) []string {
	titles := []string{}
	for _, line := range strings.Split(raw, "\n") {
		title := strings.TrimSpace(line)
		if n := utf8.RuneCountInString(title); n >= minTitleLen && n <= maxTitleLen {
			titles = append(titles, title)
		}
	}
	return titles
}
