package decision

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
)

// Compile-time interface check.
var _ Provider = (*RandomProvider)(nil)

var randomLeverages = []float64{1, 5, 10, 15, 20, 25}

// RandomProvider is the baseline provider: it emits uniformly random
// decisions. Useful for exercising the execution path without a strategy or
// an API key.
type RandomProvider struct {
	rng *rand.Rand
}

// NewRandomProvider creates a RandomProvider seeded from seed.
func NewRandomProvider(seed int64) *RandomProvider {
	return &RandomProvider{rng: rand.New(rand.NewSource(seed))}
}

// Decide emits one random decision per symbol, in sorted symbol order so a
// fixed seed yields a reproducible sequence.
func (p *RandomProvider) Decide(_ context.Context, market map[string]domain.MarketSnapshot, _ portfolio.Report) (map[string]domain.Decision, error) {
	symbols := make([]string, 0, len(market))
	for s := range market {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	decisions := make(map[string]domain.Decision, len(symbols))
	for _, symbol := range symbols {
		price := market[symbol].CurrentPrice

		direction := p.rng.Intn(4) - 1 // -1 sell, 0 hold, 1 buy, 2 close
		signal := domain.SignalHold
		switch direction {
		case -1:
			signal = domain.SignalSell
		case 1:
			signal = domain.SignalBuy
		case 2:
			signal = domain.SignalClose
		}

		quantity := round(p.uniform(0.00001, 0.01)*float64(sign(direction)), 4)
		stopLoss := round(p.uniform(price*0.9, price*0.95), 2)
		profitTarget := round(p.uniform(price*1.1, price*1.2), 2)

		decisions[symbol] = domain.Decision{
			Symbol:                symbol,
			Signal:                signal,
			Quantity:              quantity,
			ProfitTarget:          profitTarget,
			StopLoss:              stopLoss,
			InvalidationCondition: fmt.Sprintf("If the price closes below %.2f on a 3-minute candle", stopLoss),
			Leverage:              randomLeverages[p.rng.Intn(len(randomLeverages))],
			Confidence:            round(p.uniform(0.5, 1.0), 2),
			RiskUSD:               p.uniform(100, 1000),
			EntryPrice:            round(price, 2),
		}
	}
	return decisions, nil
}

func (p *RandomProvider) uniform(lo, hi float64) float64 {
	return lo + p.rng.Float64()*(hi-lo)
}

func sign(direction int) int {
	if direction < 0 {
		return -1
	}
	return 1
}

func round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}
