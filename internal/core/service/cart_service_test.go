package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func newTestCart() (*CartService, *mockKV, *recordingNotifier) {
	kv := newMockKV()
	n := &recordingNotifier{}
	return NewCartService(kv, n, nil), kv, n
}

func TestAddItem_ComputesTotals(t *testing.T) {
	cart, _, notifier := newTestCart()

	snap, err := cart.AddItem(context.Background(), product(1, "Headphones", "29.99", 10), 2)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.ItemCount)
	assertMoney(t, "59.98", snap.Lines[0].LineTotal)
	assertMoney(t, "59.98", snap.Subtotal)
	assertMoney(t, "8.997", snap.Tax)
	assertMoney(t, "9.99", snap.Shipping)
	assertMoney(t, "78.967", snap.Total)

	assert.Equal(t, []string{"Producto agregado"}, notifier.titles())
	assert.Equal(t, domain.NotificationSuccess, notifier.all()[0].Type)
}

func TestAddItem_FreeShippingAboveThreshold(t *testing.T) {
	cart, _, _ := newTestCart()
	ctx := context.Background()

	_, err := cart.AddItem(ctx, product(1, "Lamp", "40", 10), 3)
	require.NoError(t, err)

	snap := cart.Snapshot()
	assertMoney(t, "120", snap.Subtotal)
	assertMoney(t, "18", snap.Tax)
	assertMoney(t, "0", snap.Shipping)
	assertMoney(t, "138", snap.Total)
}

func TestAddItem_ShippingChargedAtExactlyThreshold(t *testing.T) {
	cart, _, _ := newTestCart()

	snap, err := cart.AddItem(context.Background(), product(1, "Chair", "100", 5), 1)
	require.NoError(t, err)
	assertMoney(t, "9.99", snap.Shipping)
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	cart, _, notifier := newTestCart()
	ctx := context.Background()
	p := product(7, "Mouse", "15.50", 10)

	_, err := cart.AddItem(ctx, p, 1)
	require.NoError(t, err)
	snap, err := cart.AddItem(ctx, p, 2)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)
	assertMoney(t, "46.50", snap.Lines[0].LineTotal)
	assert.Equal(t, []string{"Producto agregado", "Carrito actualizado"}, notifier.titles())
}

func TestAddItem_StockExceeded(t *testing.T) {
	cart, kv, notifier := newTestCart()
	ctx := context.Background()
	p := product(3, "Laptop Gaming", "1299.99", 3)

	_, err := cart.AddItem(ctx, p, 2)
	require.NoError(t, err)
	writes := kv.writes
	notifier.reset()

	snap, err := cart.AddItem(ctx, p, 2)
	require.ErrorIs(t, err, ErrStockExceeded)

	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.Equal(t, 2, cart.Snapshot().ItemCount)
	assert.Equal(t, writes, kv.writes, "rejected add must not persist")

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotificationWarning, sent[0].Type)
	assert.Equal(t, "Stock limitado", sent[0].Title)
	assert.Contains(t, sent[0].Message, "3 unidades")
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	cart, _, notifier := newTestCart()

	_, err := cart.AddItem(context.Background(), product(1, "Cable", "5", 10), 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.True(t, cart.Snapshot().IsEmpty())
	assert.Empty(t, notifier.all())
}

func TestUpdateQuantity(t *testing.T) {
	cart, _, notifier := newTestCart()
	ctx := context.Background()
	_, err := cart.AddItem(ctx, product(1, "Keyboard", "49.99", 5), 1)
	require.NoError(t, err)
	notifier.reset()

	snap, err := cart.UpdateQuantity(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Lines[0].Quantity)
	assert.Equal(t, []string{"Carrito actualizado"}, notifier.titles())

	_, err = cart.UpdateQuantity(ctx, 1, 6)
	require.ErrorIs(t, err, ErrStockExceeded)
	assert.Equal(t, 4, cart.Snapshot().Lines[0].Quantity)
}

func TestUpdateQuantity_UnknownProduct(t *testing.T) {
	cart, _, notifier := newTestCart()

	snap, err := cart.UpdateQuantity(context.Background(), 99, 2)
	require.ErrorIs(t, err, ErrLineNotFound)
	assert.True(t, snap.IsEmpty())
	assert.Empty(t, notifier.all())
}

func TestUpdateQuantity_ZeroMatchesRemove(t *testing.T) {
	ctx := context.Background()
	setup := func() (*CartService, *recordingNotifier) {
		cart, _, notifier := newTestCart()
		_, err := cart.AddItem(ctx, product(1, "Desk", "150", 4), 1)
		require.NoError(t, err)
		_, err = cart.AddItem(ctx, product(2, "Pen", "2.50", 40), 3)
		require.NoError(t, err)
		notifier.reset()
		return cart, notifier
	}

	updated, updatedNotes := setup()
	viaUpdate, err := updated.UpdateQuantity(ctx, 1, 0)
	require.NoError(t, err)

	removed, removedNotes := setup()
	viaRemove := removed.RemoveItem(ctx, 1)

	assert.Equal(t, viaRemove, viaUpdate)
	assert.Equal(t, removedNotes.titles(), updatedNotes.titles())
	assert.False(t, updated.Contains(1))
	assert.True(t, updated.Contains(2))
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	cart, kv, notifier := newTestCart()

	snap := cart.RemoveItem(context.Background(), 42)
	assert.True(t, snap.IsEmpty())
	assert.Empty(t, notifier.all())
	assert.Zero(t, kv.writes)
}

func TestClear(t *testing.T) {
	cart, kv, notifier := newTestCart()
	ctx := context.Background()

	cart.Clear(ctx)
	assert.Empty(t, notifier.all(), "clearing an empty cart is silent")

	_, err := cart.AddItem(ctx, product(1, "Ball", "25", 10), 2)
	require.NoError(t, err)
	notifier.reset()

	snap := cart.Clear(ctx)
	assert.True(t, snap.IsEmpty())
	assertMoney(t, "0", snap.Subtotal)
	assert.Equal(t, []string{"Carrito vaciado"}, notifier.titles())
	assert.Equal(t, "[]", kv.data[cartStorageKey])
}

func TestSnapshot_IsImmutable(t *testing.T) {
	cart, _, _ := newTestCart()
	ctx := context.Background()

	_, err := cart.AddItem(ctx, product(1, "Shoe", "60", 10), 1)
	require.NoError(t, err)
	before := cart.Snapshot()

	_, err = cart.UpdateQuantity(ctx, 1, 5)
	require.NoError(t, err)
	_, err = cart.AddItem(ctx, product(2, "Sock", "3", 10), 1)
	require.NoError(t, err)

	assert.Len(t, before.Lines, 1)
	assert.Equal(t, 1, before.Lines[0].Quantity)
	assertMoney(t, "60", before.Subtotal)
}

func TestItemAndContains(t *testing.T) {
	cart, _, _ := newTestCart()
	_, err := cart.AddItem(context.Background(), product(5, "Tent", "89.90", 2), 2)
	require.NoError(t, err)

	line, ok := cart.Item(5)
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)

	_, ok = cart.Item(6)
	assert.False(t, ok)
	assert.False(t, cart.Contains(6))
}

func TestPersistence_RoundTrip(t *testing.T) {
	kv := newMockKV()
	ctx := context.Background()

	first := NewCartService(kv, nil, nil)
	_, err := first.AddItem(ctx, product(1, "Smartphone Pro Max", "999.99", 15), 1)
	require.NoError(t, err)
	_, err = first.AddItem(ctx, product(2, "Headphones", "29.99", 10), 2)
	require.NoError(t, err)

	second := NewCartService(kv, nil, nil)
	second.LoadFromStorage(ctx)

	assert.Equal(t, first.Snapshot().ItemCount, second.Snapshot().ItemCount)
	assert.True(t, first.Snapshot().Total.Equal(second.Snapshot().Total))

	var stored []domain.CartLine
	require.NoError(t, json.Unmarshal([]byte(kv.data[cartStorageKey]), &stored))
	assert.Len(t, stored, 2)
}

func TestLoadFromStorage_Absent(t *testing.T) {
	cart, _, notifier := newTestCart()

	cart.LoadFromStorage(context.Background())
	assert.True(t, cart.Snapshot().IsEmpty())
	assert.Empty(t, notifier.all())
}

func TestLoadFromStorage_CorruptData(t *testing.T) {
	cart, kv, notifier := newTestCart()
	kv.data[cartStorageKey] = "{not json"

	cart.LoadFromStorage(context.Background())

	assert.True(t, cart.Snapshot().IsEmpty())
	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotificationError, sent[0].Type)
	assert.Equal(t, "Error al cargar el carrito", sent[0].Title)
}

func TestLoadFromStorage_RejectsInvalidQuantity(t *testing.T) {
	cart, kv, notifier := newTestCart()
	kv.data[cartStorageKey] = `[{"product":{"id":1,"name":"X","price":"1","stockCount":5},"quantity":0}]`

	cart.LoadFromStorage(context.Background())

	assert.True(t, cart.Snapshot().IsEmpty())
	assert.Len(t, notifier.all(), 1)
}

func TestPersist_WriteFailureKeepsInMemoryState(t *testing.T) {
	cart, kv, notifier := newTestCart()
	kv.setErr = errStoreDown

	snap, err := cart.AddItem(context.Background(), product(1, "Bike", "450", 2), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ItemCount)

	assert.ElementsMatch(t, []string{"Producto agregado", "Error al guardar el carrito"}, notifier.titles())
}

func TestCartWithoutStore(t *testing.T) {
	cart := NewCartService(nil, nil, nil)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, product(1, "Mat", "20", 3), 3)
	require.NoError(t, err)
	cart.LoadFromStorage(ctx)
	assert.Equal(t, 3, cart.Snapshot().ItemCount)
}
