package election

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
	"github.com/alanyoungcy/marketlens/internal/topic"
)

const (
	defaultProbeTimeout = 15 * time.Second
	defaultSoftTimeout  = 45 * time.Second
)

// Searcher returns one source's markets matching a probe.
type Searcher interface {
	Source() domain.Source
	Search(ctx context.Context, p topic.Probe) ([]domain.Market, error)
}

// EngineConfig tunes an Engine. Zero values fall back to defaults.
type EngineConfig struct {
	ProbeTimeout time.Duration
	SoftTimeout  time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// Engine runs one election refresh: it probes every source, merges the
// results, matches each catalog race and derives ratings and primaries.
type Engine struct {
	catalog      *Catalog
	probes       []topic.Probe
	probeTimeout time.Duration
	softTimeout  time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewEngine creates an Engine over catalog.
func NewEngine(catalog *Catalog, cfg EngineConfig) *Engine {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.SoftTimeout <= 0 {
		cfg.SoftTimeout = defaultSoftTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		catalog:      catalog,
		probes:       BuildProbes(catalog),
		probeTimeout: cfg.ProbeTimeout,
		softTimeout:  cfg.SoftTimeout,
		now:          cfg.Now,
		logger:       cfg.Logger.With(slog.String("component", "election")),
	}
}

// Catalog returns the engine's race catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Probes returns the probe set issued against every source.
func (e *Engine) Probes() []topic.Probe { return e.probes }

// BuildProbes returns the overlapping probe set for a catalog: one generic
// probe per office plus primaries, and one probe per state.
func BuildProbes(c *Catalog) []topic.Probe {
	year := strconv.Itoa(c.Cycle())
	probes := []topic.Probe{
		{Name: "senate", Required: []string{"senate", "senator"}, Boost: []string{year, "election", "race"}},
		{Name: "governor", Required: []string{"governor", "gubernatorial"}, Boost: []string{year, "election", "race"}},
		{Name: "house", Required: []string{"house", "congressional", "district"}, Boost: []string{year, "election"}},
		{Name: "primary", Required: []string{"primary", "nominee", "nomination"}, Boost: []string{year, "republican", "democratic"}},
	}
	for _, st := range c.States() {
		req := []string{st.Name}
		if !st.Ambiguous {
			req = append(req, st.Code)
		}
		probes = append(probes, topic.Probe{
			Name:     "state-" + st.Code,
			Required: req,
			Boost:    []string{"senate", "governor", "house", "primary", year},
		})
	}
	return probes
}

type branchResult struct {
	source  domain.Source
	probe   string
	markets []domain.Market
	err     error
}

type marketKey struct {
	source domain.Source
	id     string
}

// Collect fans every probe out to every searcher and merges the results,
// de-duplicated by source and market id. Each branch has its own timeout
// and failures stay local to the branch. When the soft timeout fires the
// markets gathered so far are returned with partial set.
func (e *Engine) Collect(ctx context.Context, searchers []Searcher) (markets []domain.Market, partial bool) {
	ctx, cancel := context.WithTimeout(ctx, e.softTimeout)
	defer cancel()

	n := len(searchers) * len(e.probes)
	results := make(chan branchResult, n)
	for _, s := range searchers {
		for _, p := range e.probes {
			go func(s Searcher, p topic.Probe) {
				pctx, pcancel := context.WithTimeout(ctx, e.probeTimeout)
				defer pcancel()
				ms, err := s.Search(pctx, p)
				results <- branchResult{source: s.Source(), probe: p.Name, markets: ms, err: err}
			}(s, p)
		}
	}

	seen := make(map[marketKey]struct{})
	failed := 0
collect:
	for pending := n; pending > 0; pending-- {
		select {
		case r := <-results:
			if r.err != nil {
				failed++
				e.logger.WarnContext(ctx, "election probe failed",
					slog.String("source", string(r.source)),
					slog.String("probe", r.probe),
					slog.String("error", r.err.Error()),
				)
				continue
			}
			for _, m := range r.markets {
				k := marketKey{source: m.Source, id: m.ID}
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				markets = append(markets, m)
			}
		case <-ctx.Done():
			partial = true
			e.logger.WarnContext(ctx, "election collection cut short",
				slog.Int("pending", pending),
				slog.Duration("soft_timeout", e.softTimeout),
			)
			break collect
		}
	}
	if failed > 0 {
		partial = true
	}
	listing.SortByVolume(markets)
	return markets, partial
}

// Derive matches every catalog race against markets. General races get a
// rating when a probability can be extracted; primaries come from a
// dedicated market or are synthesized from the general-election market.
func (e *Engine) Derive(markets []domain.Market) domain.ElectionSnapshot {
	now := e.now().UTC()
	snap := domain.ElectionSnapshot{
		Ratings:   make(map[string]domain.RaceRating),
		Primaries: make(map[string]domain.PrimaryResult),
		UpdatedAt: now,
	}

	races := e.catalog.Races()
	general := make(map[string]domain.MatchResult)
	for _, race := range races {
		if race.IsPrimary() {
			continue
		}
		match, ok := e.catalog.BestMatch(markets, race)
		if !ok {
			continue
		}
		general[race.Key()] = match
		d, ok := e.catalog.DeriveProbability(match.Market, race)
		if !ok {
			continue
		}
		snap.Ratings[race.Key()] = domain.RaceRating{
			Race:           race,
			MarketID:       match.Market.ID,
			Source:         match.Market.Source,
			Question:       match.Market.Question,
			URL:            match.Market.URL,
			DemProbability: d.Dem,
			RepProbability: d.Rep,
			Independent:    d.Independent,
			Rating:         RatingFor(d.RatingProbability()),
			DemRating:      RatingFor(d.Dem),
			Method:         d.Method,
			Volume:         match.Market.Volume,
			UpdatedAt:      now,
		}
	}

	for _, race := range races {
		if !race.IsPrimary() {
			continue
		}
		if match, ok := e.catalog.BestMatch(markets, race); ok {
			if p, ok := PrimaryFromMarket(match.Market, race, now); ok {
				snap.Primaries[race.Key()] = p
				continue
			}
		}
		gen := domain.Race{State: race.State, Office: race.Office, District: race.District}
		if match, ok := general[gen.Key()]; ok {
			if p, ok := e.catalog.SynthesizePrimary(match.Market, race, now); ok {
				snap.Primaries[race.Key()] = p
			}
		}
	}
	return snap
}

// Refresh runs Collect then Derive.
func (e *Engine) Refresh(ctx context.Context, searchers ...Searcher) domain.ElectionSnapshot {
	start := e.now()
	markets, partial := e.Collect(ctx, searchers)
	snap := e.Derive(markets)
	snap.Partial = partial
	e.logger.InfoContext(ctx, "election refresh complete",
		slog.Int("markets", len(markets)),
		slog.Int("ratings", len(snap.Ratings)),
		slog.Int("primaries", len(snap.Primaries)),
		slog.Bool("partial", partial),
		slog.Duration("elapsed", e.now().Sub(start)),
	)
	return snap
}
