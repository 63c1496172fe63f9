package usage

import "strings"

// modelRates holds per-million-token prices in milli-cents. Prices are
// static; unknown models fall back to their provider family rate and then
// to zero.
type modelRates struct {
	InputPerMillion  int64
	OutputPerMillion int64
}

var pricing = map[string]modelRates{
	"claude-sonnet-4-20250514": {InputPerMillion: 300_000, OutputPerMillion: 1_500_000},
	"claude-3-5-haiku":         {InputPerMillion: 80_000, OutputPerMillion: 400_000},
	"gpt-4o":                   {InputPerMillion: 250_000, OutputPerMillion: 1_000_000},
	"gpt-4o-mini":              {InputPerMillion: 15_000, OutputPerMillion: 60_000},
	"gemini-2.0-flash":         {InputPerMillion: 10_000, OutputPerMillion: 40_000},
	"gemini-1.5-pro":           {InputPerMillion: 125_000, OutputPerMillion: 500_000},
}

var familyPricing = map[string]modelRates{
	"claude": {InputPerMillion: 300_000, OutputPerMillion: 1_500_000},
	"gpt":    {InputPerMillion: 250_000, OutputPerMillion: 1_000_000},
	"gemini": {InputPerMillion: 10_000, OutputPerMillion: 40_000},
}

// CostMilliCents computes the billing cost of a call in milli-cents.
// Unknown models cost zero rather than guessing.
func CostMilliCents(model string, inputTokens, outputTokens int64) int64 {
	rates, ok := pricing[model]
	if !ok {
		for prefix, fr := range familyPricing {
			if strings.HasPrefix(model, prefix) {
				rates = fr
				ok = true
				break
			}
		}
	}
	if !ok {
		return 0
	}
	return inputTokens*rates.InputPerMillion/1_000_000 +
		outputTokens*rates.OutputPerMillion/1_000_000
}
