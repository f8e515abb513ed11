package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
)

// Compile-time interface check.
var _ Provider = (*AIProvider)(nil)

// DefaultAIModel is the model used when the config names none.
const DefaultAIModel = "gemini-2.5-flash"

// generator is the slice of the genai client the provider needs. Tests
// substitute a stub.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// AIProvider asks an LLM for one decision per symbol. The model sees the
// rendered account view and the symbol's indicator snapshot and must answer
// with a single JSON object.
type AIProvider struct {
	models generator
	model  string
	log    *slog.Logger
}

// NewAIProvider creates an AIProvider. Credentials come from the
// environment, as the genai client documents (GEMINI_API_KEY or GOOGLE_API_KEY).
func NewAIProvider(ctx context.Context, model string) (*AIProvider, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing genai client: %w", err)
	}
	if model == "" {
		model = DefaultAIModel
	}
	return &AIProvider{
		models: client.Models,
		model:  model,
		log:    slog.Default().With("component", "ai-provider", "model", model),
	}, nil
}

// aiResponse is the wire shape the model is instructed to produce.
type aiResponse struct {
	TradeSignalArgs domain.Decision `json:"trade_signal_args"`
}

// Decide queries the model once per symbol, in sorted order. A malformed
// answer for one symbol fails the whole round; the caller decides whether to
// skip the cycle.
func (p *AIProvider) Decide(ctx context.Context, market map[string]domain.MarketSnapshot, account portfolio.Report) (map[string]domain.Decision, error) {
	symbols := make([]string, 0, len(market))
	for s := range market {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	accountText := RenderAccount(account)
	decisions := make(map[string]domain.Decision, len(symbols))
	for _, symbol := range symbols {
		d, err := p.decideSymbol(ctx, symbol, market[symbol], accountText)
		if err != nil {
			return nil, fmt.Errorf("deciding %s: %w", symbol, err)
		}
		decisions[symbol] = d
	}
	return decisions, nil
}

func (p *AIProvider) decideSymbol(ctx context.Context, symbol string, snap domain.MarketSnapshot, accountText string) (domain.Decision, error) {
	prompt := buildPrompt(symbol, RenderMarket(snap), accountText)

	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return domain.Decision{}, fmt.Errorf("generating decision: %w", err)
	}

	text := resp.Text()
	var parsed aiResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		p.log.Warn("model returned unparsable decision", "symbol", symbol, "response", text)
		return domain.Decision{}, fmt.Errorf("parsing model response: %w", err)
	}

	d := parsed.TradeSignalArgs
	if d.Symbol == "" {
		d.Symbol = symbol
	}
	if err := Validate(d); err != nil {
		return domain.Decision{}, err
	}
	return d, nil
}

func buildPrompt(symbol, marketText, accountText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a trading agent. Here is the market data for %s:\n", symbol)
	b.WriteString(marketText)
	b.WriteString("\nHere is the current portfolio information:\n")
	b.WriteString(accountText)
	fmt.Fprintf(&b, `
INSTRUCTIONS:
Generate a trading decision for the symbol %s.
The committed collateral should stay within 30%% of the total available cash.
Generate ONLY for symbol %s a single JSON object in the following structure:
{
"trade_signal_args": {
"coin": <string>,
"signal": <"buy" | "sell" | "hold" | "close">,
"quantity": <number, negative to sell short>,
"profit_target": <number>,
"stop_loss": <number>,
"invalidation_condition": <string>,
"leverage": <number>,
"confidence": <number: between 0 and 1>,
"risk_usd": <number>,
"entry_price": <number>
}
}
If you have no trading signal, set "signal" to "hold" and all numeric fields sensibly.
Respond ONLY with the JSON object, no text or explanation.
Do not output an array. Always output a single object as described above.
`, symbol, symbol)
	return b.String()
}
