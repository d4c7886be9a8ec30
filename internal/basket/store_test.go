package basket

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStorage struct {
	*MemoryStorage
	writes int
	getErr error
	setErr error
}

func newRecordingStorage() *recordingStorage {
	return &recordingStorage{MemoryStorage: NewMemoryStorage()}
}

func (r *recordingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if r.getErr != nil {
		return "", false, r.getErr
	}
	return r.MemoryStorage.Get(ctx, key)
}

func (r *recordingStorage) Set(ctx context.Context, key, value string) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.writes++
	return r.MemoryStorage.Set(ctx, key, value)
}

func frozenClock() func() time.Time {
	fixed := time.UnixMilli(1_760_000_000_000)
	return func() time.Time { return fixed }
}

func cakeItem(id int64, base string, qty int) types.LineItem {
	return types.LineItem{
		CakeID:    &id,
		Name:      fmt.Sprintf("Cake %d", id),
		BasePrice: decimal.RequireFromString(base),
		Quantity:  qty,
	}
}

func newTestStore(t *testing.T, storage Storage, opts ...Option) *Store {
	t.Helper()
	store := NewStore(storage, append([]Option{WithClock(frozenClock())}, opts...)...)
	store.Initialize(context.Background())
	return store
}

func TestAddItemAssignsUniqueIDsWithinOneMillisecond(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	const adds = 50
	seen := map[string]struct{}{}
	for i := 0; i < adds; i++ {
		item := cakeItem(7, "2000", 1)
		if i%3 == 0 {
			item.CakeID = nil
		}
		line, err := store.AddItem(ctx, item)
		require.NoError(t, err)
		_, dup := seen[line.CartItemID]
		require.False(t, dup, "duplicate id %s", line.CartItemID)
		seen[line.CartItemID] = struct{}{}
	}
	require.Equal(t, adds, store.Len())

	items := store.Items()
	assert.Equal(t, "1760000000000-custom", items[0].CartItemID)
	assert.Equal(t, "1760000000001-7", items[1].CartItemID)
}

func TestAddItemIsSafeForConcurrentUse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AddItem(ctx, cakeItem(1, "100", 1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ids := map[string]struct{}{}
	for _, item := range store.Items() {
		ids[item.CartItemID] = struct{}{}
	}
	assert.Len(t, ids, 20)
}

func TestAddItemDefaultsQuantityAndNeverMerges(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	first, err := store.AddItem(ctx, cakeItem(7, "2000", 0))
	require.NoError(t, err)
	second, err := store.AddItem(ctx, cakeItem(7, "2000", -3))
	require.NoError(t, err)

	assert.Equal(t, 1, first.Quantity)
	assert.Equal(t, 1, second.Quantity)
	assert.NotEqual(t, first.CartItemID, second.CartItemID)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 2, store.ItemCount())
}

func TestAddItemIgnoresCallerSuppliedID(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage())
	item := cakeItem(3, "100", 1)
	item.CartItemID = "forged"

	line, err := store.AddItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "1760000000000-3", line.CartItemID)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := newRecordingStorage()
	store := newTestStore(t, storage)

	keep, err := store.AddItem(ctx, cakeItem(1, "1000", 1))
	require.NoError(t, err)
	drop, err := store.AddItem(ctx, cakeItem(2, "500", 2))
	require.NoError(t, err)

	require.NoError(t, store.RemoveItem(ctx, drop.CartItemID))
	writes := storage.writes
	before := store.Items()

	require.NoError(t, store.RemoveItem(ctx, drop.CartItemID))
	require.NoError(t, store.RemoveItem(ctx, "does-not-exist"))

	assert.Equal(t, before, store.Items())
	assert.Equal(t, writes, storage.writes, "no-op removes must not write")
	require.Len(t, store.Items(), 1)
	assert.Equal(t, keep.CartItemID, store.Items()[0].CartItemID)
}

func TestUpdateQuantityClampsAndOnlyTouchesTarget(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	a, err := store.AddItem(ctx, cakeItem(1, "1000", 4))
	require.NoError(t, err)
	b, err := store.AddItem(ctx, cakeItem(2, "500", 2))
	require.NoError(t, err)

	for _, requested := range []int{0, -1, -1000} {
		require.NoError(t, store.UpdateQuantity(ctx, a.CartItemID, requested))
		got, ok := store.Find(a.CartItemID)
		require.True(t, ok)
		assert.Equal(t, 1, got.Quantity, "requested %d", requested)
	}

	require.NoError(t, store.UpdateQuantity(ctx, a.CartItemID, 6))
	got, _ := store.Find(a.CartItemID)
	assert.Equal(t, 6, got.Quantity)

	other, _ := store.Find(b.CartItemID)
	assert.Equal(t, 2, other.Quantity)
}

func TestAdjustQuantityClamps(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	line, err := store.AddItem(ctx, cakeItem(1, "1000", 3))
	require.NoError(t, err)

	require.NoError(t, store.AdjustQuantity(ctx, line.CartItemID, 2))
	got, _ := store.Find(line.CartItemID)
	assert.Equal(t, 5, got.Quantity)

	require.NoError(t, store.AdjustQuantity(ctx, line.CartItemID, -99))
	got, _ = store.Find(line.CartItemID)
	assert.Equal(t, 1, got.Quantity)
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	storage := newRecordingStorage()
	store := newTestStore(t, storage)
	_, err := store.AddItem(ctx, cakeItem(1, "1000", 1))
	require.NoError(t, err)
	writes := storage.writes

	require.NoError(t, store.UpdateQuantity(ctx, "missing", 5))
	require.NoError(t, store.AdjustQuantity(ctx, "missing", 5))
	assert.Equal(t, writes, storage.writes)
}

func TestAggregatesFollowMutations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	_, err := store.AddItem(ctx, cakeItem(1, "1000", 1))
	require.NoError(t, err)
	second, err := store.AddItem(ctx, cakeItem(2, "500", 2))
	require.NoError(t, err)

	assert.True(t, store.Subtotal().Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, 3, store.ItemCount())

	require.NoError(t, store.UpdateQuantity(ctx, second.CartItemID, 4))
	assert.True(t, store.Subtotal().Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 5, store.ItemCount())

	require.NoError(t, store.Clear(ctx))
	assert.True(t, store.Subtotal().IsZero())
	assert.Equal(t, 0, store.ItemCount())
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := newTestStore(t, storage)

	total := decimal.NewFromInt(3000)
	custom := types.LineItem{
		Name:      "Vanilla (Custom)",
		BasePrice: decimal.NewFromInt(2000),
		Quantity:  2,
		Customizations: []types.Customization{
			{Category: "Topping", Name: "Sprinkles", Price: decimal.NewFromInt(100)},
			{Category: "Topping", Name: "Cherries", Price: decimal.NewFromInt(150)},
		},
		Metadata: &types.LineItemMetadata{DeliveryDate: "2026-11-01", SpecialRequests: "no nuts"},
	}
	prepriced := cakeItem(9, "0", 1)
	prepriced.TotalPrice = &total

	_, err := store.AddItem(ctx, cakeItem(7, "2000", 1))
	require.NoError(t, err)
	_, err = store.AddItem(ctx, custom)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, prepriced)
	require.NoError(t, err)

	reloaded := NewStore(storage)
	reloaded.Initialize(ctx)

	assertSameItems(t, store.Items(), reloaded.Items())
}

func TestInitializeRecoversFromCorruptData(t *testing.T) {
	ctx := context.Background()
	for name, raw := range map[string]string{
		"garbage":    "{not json",
		"wrong type": `{"cart_item_id":"x"}`,
		"blank":      "   ",
		"null":       "null",
	} {
		t.Run(name, func(t *testing.T) {
			storage := NewMemoryStorage()
			require.NoError(t, storage.Set(ctx, StorageKey, raw))

			store := NewStore(storage)
			store.Initialize(ctx)
			assert.Equal(t, 0, store.Len())

			_, err := store.AddItem(ctx, cakeItem(1, "10", 1))
			require.NoError(t, err)
			assert.Equal(t, 1, store.Len())
		})
	}
}

func TestInitializeRecoversFromStorageFailure(t *testing.T) {
	storage := newRecordingStorage()
	storage.getErr = errors.New("disk on fire")

	store := NewStore(storage)
	store.Initialize(context.Background())
	assert.Equal(t, 0, store.Len())
}

func TestInitializeRepairsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	raw := `[{"cart_item_id":"1760000000005-1","name":"a","base_price":1,"quantity":1},` +
		`{"cart_item_id":"1760000000005-1","name":"b","base_price":1,"quantity":1},` +
		`{"name":"c","base_price":1,"quantity":1}]`
	require.NoError(t, storage.Set(ctx, StorageKey, raw))

	store := newTestStore(t, storage)
	items := store.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "1760000000005-1", items[0].CartItemID)
	assert.Equal(t, "1760000000006-custom", items[1].CartItemID)
	assert.Equal(t, "1760000000007-custom", items[2].CartItemID)

	line, err := store.AddItem(ctx, cakeItem(1, "1", 1))
	require.NoError(t, err)
	assert.Equal(t, "1760000000008-1", line.CartItemID)
}

func TestInitializeLoadsLegacyEntries(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	raw := `[{"cart_item_id":"1700000000000-7","cake_id":7,"name":"Vanilla (Custom)","base_price":2000,` +
		`"customizations":[{"type":"Topping","name":"Cherries","price":150}],` +
		`"metadata":{"delivery_date":"2026-11-01","special_requests":""}}]`
	require.NoError(t, storage.Set(ctx, StorageKey, raw))

	store := newTestStore(t, storage)
	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "Topping", items[0].Customizations[0].Category)
	assert.True(t, store.Subtotal().Equal(decimal.NewFromInt(2150)))
}

func TestPersistFailureLeavesBasketUnchanged(t *testing.T) {
	ctx := context.Background()
	storage := newRecordingStorage()
	store := newTestStore(t, storage)

	line, err := store.AddItem(ctx, cakeItem(1, "1000", 2))
	require.NoError(t, err)
	before := store.Items()

	storage.setErr = errors.New("quota exceeded")

	_, err = store.AddItem(ctx, cakeItem(2, "500", 1))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))

	assert.Error(t, store.UpdateQuantity(ctx, line.CartItemID, 9))
	assert.Error(t, store.RemoveItem(ctx, line.CartItemID))
	assert.Error(t, store.Clear(ctx))

	assert.Equal(t, before, store.Items())

	storage.setErr = nil
	next, err := store.AddItem(ctx, cakeItem(2, "500", 1))
	require.NoError(t, err)
	assert.Equal(t, "1760000000001-2", next.CartItemID, "failed add must not burn an id")
}

func TestListenerSeesCommittedState(t *testing.T) {
	ctx := context.Background()
	storage := newRecordingStorage()

	type event struct {
		op    string
		count int
		err   error
	}
	var events []event
	store := newTestStore(t, storage, WithListener(func(_ context.Context, op string, items []types.LineItem, err error) {
		events = append(events, event{op: op, count: len(items), err: err})
	}))

	line, err := store.AddItem(ctx, cakeItem(1, "100", 1))
	require.NoError(t, err)
	require.NoError(t, store.UpdateQuantity(ctx, line.CartItemID, 3))
	require.NoError(t, store.RemoveItem(ctx, "missing"))

	storage.setErr = errors.New("boom")
	require.Error(t, store.Clear(ctx))

	require.Len(t, events, 3)
	assert.Equal(t, event{op: OpAdd, count: 1}, events[0])
	assert.Equal(t, event{op: OpUpdate, count: 1}, events[1])
	assert.Equal(t, OpClear, events[2].op)
	assert.Equal(t, 1, events[2].count)
	assert.Error(t, events[2].err)
}

func TestItemsReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	_, err := store.AddItem(ctx, cakeItem(1, "100", 1))
	require.NoError(t, err)

	items := store.Items()
	items[0].Quantity = 99
	*items[0].CakeID = 42

	fresh := store.Items()
	assert.Equal(t, 1, fresh[0].Quantity)
	assert.Equal(t, int64(1), *fresh[0].CakeID)
}

func assertSameItems(t *testing.T, want, got []types.LineItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.CartItemID, g.CartItemID)
		assert.Equal(t, w.CakeID, g.CakeID)
		assert.Equal(t, w.Name, g.Name)
		assert.True(t, w.BasePrice.Equal(g.BasePrice), "base price %s != %s", w.BasePrice, g.BasePrice)
		assert.Equal(t, w.Quantity, g.Quantity)
		assert.Equal(t, w.Metadata, g.Metadata)
		if w.TotalPrice == nil {
			assert.Nil(t, g.TotalPrice)
		} else {
			require.NotNil(t, g.TotalPrice)
			assert.True(t, w.TotalPrice.Equal(*g.TotalPrice))
		}
		require.Len(t, g.Customizations, len(w.Customizations))
		for j := range w.Customizations {
			assert.Equal(t, w.Customizations[j].Category, g.Customizations[j].Category)
			assert.Equal(t, w.Customizations[j].Name, g.Customizations[j].Name)
			assert.True(t, w.Customizations[j].Price.Equal(g.Customizations[j].Price))
		}
	}
}

func TestAdjustQuantitySaturates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	line, err := store.AddItem(ctx, cakeItem(1, "100", 5))
	require.NoError(t, err)

	require.NoError(t, store.AdjustQuantity(ctx, line.CartItemID, math.MaxInt))
	got, _ := store.Find(line.CartItemID)
	assert.Equal(t, math.MaxInt, got.Quantity)

	require.NoError(t, store.AdjustQuantity(ctx, line.CartItemID, math.MinInt))
	got, _ = store.Find(line.CartItemID)
	assert.Equal(t, 1, got.Quantity)
}

func TestInitializeDropsNamelessLines(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	raw := `[null,{"cart_item_id":"1760000000001-1","name":"  ","base_price":5},` +
		`{"cart_item_id":"1760000000002-2","cake_id":2,"name":"Lemon","base_price":800,"quantity":1}]`
	require.NoError(t, storage.Set(ctx, StorageKey, raw))

	store := newTestStore(t, storage)
	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Lemon", items[0].Name)
}

func TestRemoveItemsDropsOnlyListedLines(t *testing.T) {
	ctx := context.Background()
	storage := newRecordingStorage()
	store := newTestStore(t, storage)

	a, err := store.AddItem(ctx, cakeItem(1, "100", 1))
	require.NoError(t, err)
	b, err := store.AddItem(ctx, cakeItem(2, "200", 1))
	require.NoError(t, err)
	c, err := store.AddItem(ctx, cakeItem(3, "300", 1))
	require.NoError(t, err)

	writes := storage.writes
	require.NoError(t, store.RemoveItems(ctx, "missing"))
	assert.Equal(t, writes, storage.writes)

	require.NoError(t, store.RemoveItems(ctx, a.CartItemID, c.CartItemID, "missing"))
	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, b.CartItemID, items[0].CartItemID)
	assert.Equal(t, writes+1, storage.writes)
}
