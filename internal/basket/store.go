package basket

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cakehouse/storefront/internal/pricing"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Mutation names reported to listeners.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update_quantity"
	OpAdjust = "adjust_quantity"
	OpClear  = "clear"
)

// Listener observes every mutation that reached storage, successful or not.
// items is the basket after the mutation; on error it is the unchanged basket.
// Listeners run under the store lock and must not call back into the Store.
type Listener func(ctx context.Context, op string, items []types.LineItem, err error)

// Store is the source of truth for one basket. A Store is safe for concurrent
// use, but two Stores over the same storage key overwrite each other.
type Store struct {
	mu        sync.Mutex
	storage   Storage
	key       string
	items     []types.LineItem
	lastStamp int64
	now       func() time.Time
	logg      *logger.Logger
	listeners []Listener
}

type Option func(*Store)

func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) {
		if logg != nil {
			s.logg = logg
		}
	}
}

// WithClock overrides the time source used for cart item ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithListener(fn Listener) Option {
	return func(s *Store) {
		if fn != nil {
			s.listeners = append(s.listeners, fn)
		}
	}
}

// WithKey overrides StorageKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     StorageKey,
		now:     time.Now,
		logg:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted basket. Missing, unreadable or corrupt
// data yields an empty basket; the failure is logged, never returned.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logg.Error(ctx, "basket storage read failed; starting empty", err)
		return
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}

	var items []types.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "basket data corrupt; starting empty")
		return
	}
	s.items = s.repairIDs(ctx, s.dropBlankLines(ctx, items))
}

// dropBlankLines discards entries without a name, such as a persisted null.
func (s *Store) dropBlankLines(ctx context.Context, items []types.LineItem) []types.LineItem {
	kept := items[:0]
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			s.logg.Warn(s.logg.WithCartItemID(ctx, item.CartItemID), "dropped nameless basket line")
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// repairIDs keeps ids unique after a load and seeds the id stamp from them.
func (s *Store) repairIDs(ctx context.Context, items []types.LineItem) []types.LineItem {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if stamp, ok := parseStamp(item.CartItemID); ok && stamp > s.lastStamp {
			s.lastStamp = stamp
		}
	}
	for i := range items {
		id := items[i].CartItemID
		if _, dup := seen[id]; id == "" || dup {
			items[i].CartItemID = s.nextIDLocked(items[i], seen)
			s.logg.Warn(s.logg.WithCartItemID(ctx, items[i].CartItemID), "reassigned missing or duplicate cart item id")
		}
		seen[items[i].CartItemID] = struct{}{}
	}
	return items
}

// Items returns a copy of the basket lines in insertion order.
func (s *Store) Items() []types.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Find returns the line with the given id.
func (s *Store) Find(cartItemID string) (types.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(cartItemID); i >= 0 {
		return s.items[i].Clone(), true
	}
	return types.LineItem{}, false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subtotal is recomputed from the current lines on every call.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Subtotal(s.items)
}

// ItemCount is recomputed from the current lines on every call.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.ItemCount(s.items)
}

// Snapshot returns the lines and their quote under a single lock.
func (s *Store) Snapshot(rates pricing.Rates) ([]types.LineItem, pricing.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items), pricing.Quote(s.items, rates)
}

// AddItem appends item as a new line with a fresh cart item id and returns it.
// Identical items are never merged.
func (s *Store) AddItem(ctx context.Context, item types.LineItem) (types.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := item.Clone()
	line.Quantity = types.NormalizeQuantity(line.Quantity)
	if len(line.Customizations) == 0 {
		line.Customizations = nil
	}

	prevStamp := s.lastStamp
	line.CartItemID = s.nextIDLocked(line, s.idSetLocked())

	next := make([]types.LineItem, len(s.items), len(s.items)+1)
	copy(next, s.items)
	next = append(next, line)

	if err := s.commitLocked(ctx, OpAdd, next); err != nil {
		s.lastStamp = prevStamp
		return types.LineItem{}, err
	}
	return line.Clone(), nil
}

// RemoveItem drops the line. An unknown id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, cartItemID string) error {
	return s.RemoveItems(ctx, cartItemID)
}

// RemoveItems drops every listed line in one write. Unknown ids are ignored
// and nothing is written when none of them match.
func (s *Store) RemoveItems(ctx context.Context, cartItemIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(cartItemIDs))
	for _, id := range cartItemIDs {
		drop[id] = struct{}{}
	}
	next := make([]types.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if _, ok := drop[item.CartItemID]; !ok {
			next = append(next, item)
		}
	}
	if len(next) == len(s.items) {
		return nil
	}
	return s.commitLocked(ctx, OpRemove, next)
}

// UpdateQuantity sets the line's quantity, clamped to at least 1.
// An unknown id is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, cartItemID string, quantity int) error {
	return s.setQuantity(ctx, OpUpdate, cartItemID, func(int) int { return quantity })
}

// AdjustQuantity adds delta to the line's quantity, clamped to at least 1.
// The sum saturates instead of wrapping. An unknown id is a no-op.
func (s *Store) AdjustQuantity(ctx context.Context, cartItemID string, delta int) error {
	return s.setQuantity(ctx, OpAdjust, cartItemID, func(current int) int { return saturatingAdd(current, delta) })
}

func (s *Store) setQuantity(ctx context.Context, op, cartItemID string, next func(int) int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(cartItemID)
	if i < 0 {
		return nil
	}
	qty := types.NormalizeQuantity(next(s.items[i].Quantity))
	if qty == s.items[i].Quantity {
		return nil
	}
	items := make([]types.LineItem, len(s.items))
	copy(items, s.items)
	items[i] = items[i].Clone()
	items[i].Quantity = qty
	return s.commitLocked(ctx, op, items)
}

// Clear empties the basket.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, OpClear, nil)
}

// commitLocked persists next and only then makes it visible.
func (s *Store) commitLocked(ctx context.Context, op string, next []types.LineItem) error {
	err := s.persistLocked(ctx, next)
	if err == nil {
		s.items = next
	}
	for _, fn := range s.listeners {
		fn(ctx, op, cloneItems(s.items), err)
	}
	return err
}

func (s *Store) persistLocked(ctx context.Context, items []types.LineItem) error {
	if items == nil {
		items = []types.LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode basket")
	}
	if err := s.storage.Set(ctx, s.key, string(raw)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist basket")
	}
	return nil
}

// nextIDLocked builds "<unix millis>-<cake id|custom>". The millisecond stamp
// is forced to increase so adds within one millisecond still get distinct ids.
func (s *Store) nextIDLocked(item types.LineItem, taken map[string]struct{}) string {
	stamp := s.now().UnixMilli()
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}
	stem := item.IDStem()
	for {
		id := fmt.Sprintf("%d-%s", stamp, stem)
		if _, exists := taken[id]; !exists {
			s.lastStamp = stamp
			return id
		}
		stamp++
	}
}

func (s *Store) idSetLocked() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.items))
	for _, item := range s.items {
		ids[item.CartItemID] = struct{}{}
	}
	return ids
}

func (s *Store) indexLocked(cartItemID string) int {
	for i, item := range s.items {
		if item.CartItemID == cartItemID {
			return i
		}
	}
	return -1
}

func saturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

func parseStamp(cartItemID string) (int64, bool) {
	head, _, found := strings.Cut(cartItemID, "-")
	if !found {
		return 0, false
	}
	stamp, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return 0, false
	}
	return stamp, true
}

func cloneItems(items []types.LineItem) []types.LineItem {
	out := make([]types.LineItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
