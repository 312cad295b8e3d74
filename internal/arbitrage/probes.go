package arbitrage

import "github.com/alanyoungcy/marketlens/internal/topic"

// DefaultProbes are the topics scanned for cross-exchange pairs.
func DefaultProbes() []topic.Probe {
	return []topic.Probe{
		{Name: "us-politics", Required: []string{"election", "president", "senate", "house", "governor", "congress"}, Boost: []string{"2026", "2028", "democrat", "republican"}},
		{Name: "fed", Required: []string{"fed", "federal reserve", "fomc", "interest rate", "rate cut", "rate hike"}, Boost: []string{"june", "july", "september", "december", "bps"}},
		{Name: "recession", Required: []string{"recession", "gdp"}, Boost: []string{"us", "2026", "negative"}},
		{Name: "bitcoin", Required: []string{"bitcoin", "btc"}, Boost: []string{"price", "100k", "150k", "above", "reach"}},
		{Name: "ukraine-russia", Required: []string{"ukraine", "russia", "putin", "zelensky"}, Boost: []string{"ceasefire", "peace", "deal", "war"}},
		{Name: "china-taiwan", Required: []string{"china", "taiwan", "xi"}, Boost: []string{"invade", "invasion", "blockade", "tariff"}},
		{Name: "iran", Required: []string{"iran", "israel"}, Boost: []string{"strike", "nuclear", "deal", "war"}},
		{Name: "oil", Required: []string{"oil", "crude", "wti", "brent", "opec"}, Boost: []string{"price", "barrel"}},
		{Name: "ai", Required: []string{"ai", "openai", "gpt", "anthropic", "gemini"}, Boost: []string{"release", "model", "best"}},
		{Name: "tariffs", Required: []string{"tariff", "tariffs", "trade deal", "trade war"}, Boost: []string{"china", "eu", "canada", "mexico"}},
	}
}
