// internal/catalog/catalog.go
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/models"
)

const cacheKeyPrefix = "opportunity:"

// Service serves the funding-opportunity catalog. Listings are reference
// data seeded at startup; lookups go through an optional Redis cache and
// discovery goes through Elasticsearch when configured.
type Service struct {
	seed     []models.Opportunity
	redis    *redis.Client
	search   Searcher
	cacheTTL time.Duration
	log      logger.Logger
}

// Searcher answers free-text discovery queries.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Opportunity, error)
}

// Options configures the catalog service. Redis and Search are optional;
// without them lookups hit the seed directly and search falls back to an
// in-memory matcher.
type Options struct {
	Seed     []models.Opportunity
	Redis    *redis.Client
	Search   Searcher
	CacheTTL time.Duration
	Logger   logger.Logger
}

func New(opts Options) *Service {
	seed := opts.Seed
	if seed == nil {
		seed = SeedOpportunities()
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		seed:     seed,
		redis:    opts.Redis,
		search:   opts.Search,
		cacheTTL: ttl,
		log:      log,
	}
}

// FindByID looks an opportunity up by id, consulting the cache first.
func (s *Service) FindByID(ctx context.Context, id string) (*models.Opportunity, error) {
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, cacheKeyPrefix+id).Result(); err == nil {
			var opp models.Opportunity
			if err := json.Unmarshal([]byte(raw), &opp); err == nil {
				return &opp, nil
			}
			// A corrupt cache entry falls through to the seed.
			s.log.Warn("discarding corrupt cache entry", map[string]interface{}{
				"opportunityId": id,
			})
		}
	}

	for i := range s.seed {
		if s.seed[i].ID == id {
			opp := s.seed[i]
			s.cache(ctx, &opp)
			return &opp, nil
		}
	}
	return nil, stderrors.NewOpportunityNotFoundError(id)
}

func (s *Service) cache(ctx context.Context, opp *models.Opportunity) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(opp)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKeyPrefix+opp.ID, raw, s.cacheTTL).Err(); err != nil {
		s.log.WithError(err).Warn("failed to cache opportunity", map[string]interface{}{
			"opportunityId": opp.ID,
		})
	}
}

// List returns every catalog entry.
func (s *Service) List(_ context.Context) []models.Opportunity {
	out := make([]models.Opportunity, len(s.seed))
	copy(out, s.seed)
	return out
}

// Search answers a discovery query, via Elasticsearch when configured and
// an in-memory matcher otherwise.
func (s *Service) Search(ctx context.Context, query string) ([]models.Opportunity, error) {
	if s.search != nil {
		return s.search.Search(ctx, query)
	}
	return matchSeed(s.seed, query), nil
}
