package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cakehouse/storefront/internal/customization"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/shopapi"
	"github.com/cakehouse/storefront/pkg/types"
)

const defaultTTL = 5 * time.Minute

type source interface {
	ListCakes(ctx context.Context) ([]types.Cake, error)
	ListCustomizations(ctx context.Context) ([]shopapi.CustomizationOption, error)
}

// Service exposes the read-only cake and customization catalog.
type Service interface {
	Cakes(ctx context.Context) ([]types.Cake, error)
	Cake(ctx context.Context, id int64) (types.Cake, error)
	Groups(ctx context.Context) ([]customization.Group, error)
	Option(ctx context.Context, category string, id int64) (customization.Option, error)
}

type service struct {
	src    source
	ttl    time.Duration
	now    func() time.Time
	flight singleflight.Group

	mu       sync.Mutex
	cakes    []types.Cake
	cakesAt  time.Time
	groups   []customization.Group
	groupsAt time.Time
}

// NewService builds a catalog service that caches backend reads for ttl.
// A non-positive ttl falls back to five minutes.
func NewService(src source, ttl time.Duration, now func() time.Time) (Service, error) {
	if src == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &service{src: src, ttl: ttl, now: now}, nil
}

// Cakes serves from the cache while it is fresh. Concurrent misses share one
// backend fetch, which runs outside the cache lock.
func (s *service) Cakes(ctx context.Context) ([]types.Cake, error) {
	s.mu.Lock()
	if s.cakes != nil && s.now().Sub(s.cakesAt) < s.ttl {
		cakes := slices.Clone(s.cakes)
		s.mu.Unlock()
		return cakes, nil
	}
	s.mu.Unlock()

	v, err, _ := s.flight.Do("cakes", func() (any, error) {
		cakes, err := s.src.ListCakes(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if cakes == nil {
			cakes = []types.Cake{}
		}
		s.mu.Lock()
		s.cakes = cakes
		s.cakesAt = s.now()
		s.mu.Unlock()
		return cakes, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]types.Cake)), nil
}

func (s *service) Cake(ctx context.Context, id int64) (types.Cake, error) {
	cakes, err := s.Cakes(ctx)
	if err != nil {
		return types.Cake{}, err
	}
	for _, c := range cakes {
		if c.ID == id {
			return c, nil
		}
	}
	return types.Cake{}, pkgerrors.New(pkgerrors.CodeNotFound, "cake not found").
		WithDetails(map[string]any{"cake_id": id})
}

func (s *service) Groups(ctx context.Context) ([]customization.Group, error) {
	s.mu.Lock()
	if s.groups != nil && s.now().Sub(s.groupsAt) < s.ttl {
		groups := cloneGroups(s.groups)
		s.mu.Unlock()
		return groups, nil
	}
	s.mu.Unlock()

	v, err, _ := s.flight.Do("groups", func() (any, error) {
		raw, err := s.src.ListCustomizations(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		groups := customization.GroupByCategory(toOptions(raw))
		if groups == nil {
			groups = []customization.Group{}
		}
		s.mu.Lock()
		s.groups = groups
		s.groupsAt = s.now()
		s.mu.Unlock()
		return groups, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneGroups(v.([]customization.Group)), nil
}

func (s *service) Option(ctx context.Context, category string, id int64) (customization.Option, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return customization.Option{}, err
	}
	opt, ok := customization.FindOption(groups, category, id)
	if !ok {
		return customization.Option{}, pkgerrors.New(pkgerrors.CodeNotFound, "customization option not found").
			WithDetails(map[string]any{"category": category, "option_id": id})
	}
	return opt, nil
}

func toOptions(raw []shopapi.CustomizationOption) []customization.Option {
	out := make([]customization.Option, 0, len(raw))
	for _, r := range raw {
		out = append(out, customization.Option{
			ID:          r.ID,
			Category:    r.Category,
			Name:        r.Name,
			Description: r.Description,
			ImageURL:    r.ImageURL,
			Price:       r.Price,
			IsActive:    r.IsActive,
		})
	}
	return out
}

func cloneGroups(groups []customization.Group) []customization.Group {
	out := make([]customization.Group, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Options = slices.Clone(g.Options)
	}
	return out
}
