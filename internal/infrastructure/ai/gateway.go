package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/config"
	"github.com/LavaJover/shvark-market-service/internal/domain"
	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrDisabled = errors.New("inference gateway disabled")

// Gateway implements domain.InferenceGateway with Gemini.
type Gateway struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a disabled gateway when the config turns it off or has no key.
func New(ctx context.Context, cfg config.AIGateway, logger *slog.Logger) (domain.InferenceGateway, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		return Disabled{}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0.2)
	return &Gateway{client: client, model: model, timeout: cfg.Timeout, logger: logger}, nil
}

func (g *Gateway) Enabled() bool { return true }

func (g *Gateway) Close() error { return g.client.Close() }

const classifyPrompt = `
You classify trading card marketplace listings.
Return STRICT JSON ONLY with this schema (no markdown, no prose):

{
  "category": "<one of: pokemon, magic, yugioh, sports, other>",
  "tags": ["<short lowercase tag>", "..."]
}

Guidelines:
- At most 5 tags, for example "holo", "first-edition", "graded", "vintage".
- Do not invent facts that are not in the listing.
`

func (g *Gateway) ClassifyListing(ctx context.Context, listing *domain.Listing) (*domain.ListingClassification, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	input := fmt.Sprintf("Listing: %q, set %q, number %q, condition %s, graded %t %s %.1f, language %q",
		listing.CardName, listing.SetName, listing.CardNumber, listing.Condition,
		listing.Graded, listing.GradingCompany, listing.Grade, listing.Language)

	resp, err := g.model.GenerateContent(ctx, genai.Text(classifyPrompt), genai.Text(input))
	if err != nil {
		return nil, err
	}
	return ParseClassification(extractText(resp))
}

func (g *Gateway) PriceCommentary(ctx context.Context, eval *domain.PriceEvaluation) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"In two sentences, explain to a buyer whether %s asking %s is a good deal. "+
			"Comparable listings: %d, median %s, range %s to %s. Verdict: %s. Plain text only.",
		strings.TrimSpace(eval.CardName+" "+eval.SetName), eval.AskedPrice.StringFixed(2),
		eval.Comparables, eval.Median.StringFixed(2), eval.Low.StringFixed(2), eval.High.StringFixed(2), eval.Verdict)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(extractText(resp)), nil
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	c := resp.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Parts {
		b.WriteString(fmt.Sprint(p))
	}
	return b.String()
}

var knownCategories = map[string]struct{}{
	"pokemon": {}, "magic": {}, "yugioh": {}, "sports": {}, "other": {},
}

// ParseClassification accepts the model's JSON, tolerating code fences, and normalizes tags.
func ParseClassification(txt string) (*domain.ListingClassification, error) {
	txt = strings.TrimSpace(txt)
	txt = strings.TrimPrefix(txt, "```json")
	txt = strings.TrimPrefix(txt, "```")
	txt = strings.TrimSuffix(txt, "```")

	var out domain.ListingClassification
	if err := json.Unmarshal([]byte(strings.TrimSpace(txt)), &out); err != nil {
		return nil, fmt.Errorf("bad classification json: %w", err)
	}

	out.Category = strings.ToLower(strings.TrimSpace(out.Category))
	if _, ok := knownCategories[out.Category]; !ok {
		out.Category = "other"
	}

	seen := map[string]struct{}{}
	tags := make([]string, 0, len(out.Tags))
	for _, t := range out.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
		if len(tags) == 5 {
			break
		}
	}
	out.Tags = tags
	return &out, nil
}

// Disabled is the gateway used when no AI backend is configured.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) ClassifyListing(context.Context, *domain.Listing) (*domain.ListingClassification, error) {
	return nil, ErrDisabled
}

func (Disabled) PriceCommentary(context.Context, *domain.PriceEvaluation) (string, error) {
	return "", ErrDisabled
}
