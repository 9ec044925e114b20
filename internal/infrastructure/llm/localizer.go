package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"CatalogLocalizer/internal/domain"
	"CatalogLocalizer/internal/ports"
	"CatalogLocalizer/pkg/retry"
)

const (
	skipMessage = "API key not provided. Translation skipped."

	systemPrompt = "You are a Spanish-speaking product content writer specializing in professional tools. Your job is to create accurate, effective product descriptions that properly represent each specific tool's features and applications."

	plierNote = "NOTE: This product is a plier. Do not mention 'FABRICADO EN ALEMANIA' for this product type."

	// Marketplace boilerplate inserted after the first line of every
	// localization. Pliers are not German made, so they only get the
	// reseller statement.
	fabricationNotice = "\n-- FABRICADO EN ALEMANIA (no es producto chino) --\n\n"
	resellerNotice    = "Somos PROFITOOLS, el único representante oficial de %s en Argentina.\n\n"

	defaultCooldown  = 20 * time.Second
	completionTokens = 1500
	temperature      = 0.5
)

// Slots: brand, product JSON, English description, plier note, code, name.
const promptTemplate = `Create an effective Spanish product description for Mercado Libre based on the following %s tool information.
Focus on ACCURACY first - make sure you correctly describe this specific product's features and uses.

PRODUCT INFORMATION (JSON format):
%s

ENGLISH DESCRIPTION (for reference):
%s

%s

Guidelines:
1. START WITH THE PRODUCT NAME IN SPANISH. The original name is "%s %s" - translate this to Spanish and put it at the TOP of your response.
2. Accurately describe THIS specific product - its exact features, specifications, and intended uses
3. Highlight the practical benefits of THIS specific tool
4. Include relevant application cases where this tool would be used
5. If it's a set, clearly list the items included
6. Maintain a professional marketing tone without exaggeration
7. Keep technical measurements and specifications accurate
8. OUTPUT MUST BE IN PLAIN TEXT format (no markdown, HTML, or other formatting)
9. IMPORTANT: Convert any weight measurements from pounds (lb) to kilograms (kg). For example, "1.5 lb" should be converted to "0.68 kg".

The description should be well-structured with:
- Clear section titles (like "Características:", "Aplicaciones:", etc.)
- Use simple dash or bullet symbol for lists
- Plain text spacing for readability
- No markdown, HTML, or special formatting characters
- All weight measurements in kilograms (kg), not pounds (lb)`

// markdownScrub flattens the formatting models add despite the plain-text
// instruction. Order matters: bold before italic, double before single
// underscore.
var markdownScrub = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`#{1,6}\s+`), ""},
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.+?)\*`), "$1"},
	{regexp.MustCompile(`__(.+?)__`), "$1"},
	{regexp.MustCompile(`_(.+?)_`), "$1"},
	{regexp.MustCompile(`\[(.+?)\]\(.+?\)`), "$1"},
}

// Localizer produces Spanish marketplace descriptions through the OpenAI
// chat-completions API. A nil client disables the service; localization is
// then skipped rather than failed.
type Localizer struct {
	client        *openai.Client
	model         string
	brand         string
	plierKeywords []string
	cooldown      time.Duration
	logger        *slog.Logger
}

var _ ports.Localizer = (*Localizer)(nil)

// NewLocalizer builds the adapter. client may be nil when no API key is
// configured.
func NewLocalizer(client *openai.Client, model, brand string, plierKeywords []string, logger *slog.Logger) *Localizer {
	if model == "" {
		model = openai.GPT4o
	}
	return &Localizer{
		client:        client,
		model:         model,
		brand:         brand,
		plierKeywords: plierKeywords,
		cooldown:      defaultCooldown,
		logger:        logger,
	}
}

// Localize renders the composed English description into Spanish. Rate
// limits get one retry after a fixed cooldown; every other service failure
// is absorbed into a Failed outcome so the batch keeps going.
func (l *Localizer) Localize(ctx context.Context, product domain.ProductRecord, english string, detail domain.ExtractedPageInfo) domain.LocalizationOutcome {
	if l.client == nil {
		l.info("no API key provided, skipping translation", "code", product.Code)
		return domain.LocalizationOutcome{Status: domain.LocalizationSkipped, Text: skipMessage}
	}

	isPlier := l.isPlier(product.Name)

	prompt, err := l.buildPrompt(product, english, detail, isPlier)
	if err != nil {
		return failed("Error in translation process: %v", err)
	}

	l.debug("sending localization request", "code", product.Code, "model", l.model, "plier", isPlier)

	var text string
	attempt := 0

	err = retry.Do(ctx, 2, l.cooldown, isRateLimit, func() error {
		attempt++

		var err error
		text, err = l.complete(ctx, prompt)
		if err != nil && attempt == 1 && ctx.Err() == nil && isRateLimit(err) {
			l.warn("rate limit hit, waiting before retrying once", "code", product.Code, "cooldown", l.cooldown)
		}
		return err
	})
	if err != nil {
		if attempt > 1 {
			l.warn("localization retry failed", "code", product.Code, "error", err)
			return failed("OpenAI API Error after retry: %v", err)
		}
		l.warn("localization request failed", "code", product.Code, "error", err)
		return failed("OpenAI API Error: %v", err)
	}

	text = stripMarkdown(text)
	text = l.injectBoilerplate(text, isPlier)

	l.info("localization received", "code", product.Code, "length", len(text))

	return domain.LocalizationOutcome{Status: domain.LocalizationOK, Text: text}
}

func (l *Localizer) buildPrompt(product domain.ProductRecord, english string, detail domain.ExtractedPageInfo, isPlier bool) (string, error) {
	specs := detail.Specifications
	if specs == nil {
		specs = domain.NewSpecList()
	}
	items := detail.ItemsInSet
	if items == nil {
		items = []string{}
	}

	payload := struct {
		Code           string           `json:"code"`
		Name           string           `json:"name"`
		RawDescription string           `json:"raw_description"`
		Specifications *domain.SpecList `json:"specifications"`
		ItemsInSet     []string         `json:"items_in_set"`
	}{
		Code:           product.Code,
		Name:           product.Name,
		RawDescription: detail.Description,
		Specifications: specs,
		ItemsInSet:     items,
	}

	productJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal product info: %w", err)
	}

	note := ""
	if isPlier {
		note = plierNote
	}

	return fmt.Sprintf(promptTemplate, l.brand, productJSON, english, note, product.Code, product.Name), nil
}

func (l *Localizer) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   completionTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (l *Localizer) isPlier(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range l.plierKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// injectBoilerplate inserts the marketplace notices after the first line,
// which the prompt reserves for the Spanish product name.
func (l *Localizer) injectBoilerplate(text string, isPlier bool) string {
	insert := fmt.Sprintf(resellerNotice, l.brand)
	if isPlier {
		insert = "\n" + insert
	} else {
		insert = fabricationNotice + insert
	}

	if i := strings.Index(text, "\n"); i != -1 {
		return text[:i+1] + insert + text[i+1:]
	}
	return text + insert
}

func stripMarkdown(text string) string {
	for _, pattern := range markdownScrub {
		text = pattern.re.ReplaceAllString(text, pattern.with)
	}
	return text
}

func failed(format string, err error) domain.LocalizationOutcome {
	return domain.LocalizationOutcome{
		Status: domain.LocalizationFailed,
		Detail: fmt.Sprintf(format, err),
	}
}

func isRateLimit(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}

func (l *Localizer) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func (l *Localizer) info(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}

func (l *Localizer) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
