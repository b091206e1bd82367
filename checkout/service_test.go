package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"giftshop/cache"
	"giftshop/models"
	"giftshop/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeCarts struct {
	mu          sync.Mutex
	items       map[primitive.ObjectID][]models.CartItem
	listErr     error
	failDeletes int
	deleteCalls int
}

func (f *fakeCarts) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.CartItem(nil), f.items[userID]...), nil
}

func (f *fakeCarts) DeleteByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.failDeletes > 0 {
		f.failDeletes--
		return 0, errors.New("mongo unavailable")
	}
	n := int64(len(f.items[userID]))
	delete(f.items, userID)
	return n, nil
}

type fakeProducts struct {
	mu         sync.Mutex
	products   map[primitive.ObjectID]*models.Product
	reserveErr map[primitive.ObjectID]error
	restored   []primitive.ObjectID
	onReserve  func()
}

func (f *fakeProducts) Get(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return *p, nil
}

func (f *fakeProducts) ReserveStock(_ context.Context, id primitive.ObjectID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onReserve != nil {
		f.onReserve()
	}
	if err := f.reserveErr[id]; err != nil {
		return err
	}
	p, ok := f.products[id]
	if !ok || !p.Active || p.Stock < qty {
		return store.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

func (f *fakeProducts) RestoreStock(_ context.Context, id primitive.ObjectID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored = append(f.restored, id)
	if p, ok := f.products[id]; ok {
		p.Stock += qty
	}
	return nil
}

func (f *fakeProducts) stock(id primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

type fakeOrders struct {
	mu        sync.Mutex
	orders    map[primitive.ObjectID]models.Order
	inserts   int
	insertErr error
}

func (f *fakeOrders) Insert(ctx context.Context, o models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrders) GetForUser(_ context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.UserID != userID {
		return models.Order{}, store.ErrNotFound
	}
	return o, nil
}

type fakeUsers struct {
	email string
}

func (f fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	return models.User{ID: id, Email: f.email}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return f.err
}

type fixture struct {
	svc      *Service
	carts    *fakeCarts
	products *fakeProducts
	orders   *fakeOrders
	notifier *fakeNotifier
	locks    *cache.Memory
	user     primitive.ObjectID
	roses    primitive.ObjectID
	card     primitive.ObjectID
}

// newFixture seeds a cart of 2 × roses at 10 and 1 × card at 5.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	user := primitive.NewObjectID()
	roses, card := primitive.NewObjectID(), primitive.NewObjectID()

	f := &fixture{
		carts: &fakeCarts{items: map[primitive.ObjectID][]models.CartItem{
			user: {
				{ID: primitive.NewObjectID(), UserID: user, ProductID: roses, Quantity: 2},
				{ID: primitive.NewObjectID(), UserID: user, ProductID: card, Quantity: 1},
			},
		}},
		products: &fakeProducts{
			products: map[primitive.ObjectID]*models.Product{
				roses: {ID: roses, Name: "Red Roses", Price: 10, Stock: 5, Active: true},
				card:  {ID: card, Name: "Greeting Card", Price: 5, Stock: 3, Active: true},
			},
			reserveErr: map[primitive.ObjectID]error{},
		},
		orders:   &fakeOrders{orders: map[primitive.ObjectID]models.Order{}},
		notifier: &fakeNotifier{},
		locks:    cache.NewMemory(),
		user:     user,
		roses:    roses,
		card:     card,
	}
	f.svc = NewService(Deps{
		Carts:         f.carts,
		Products:      f.products,
		Orders:        f.orders,
		Users:         fakeUsers{email: "account@shop.test"},
		Locker:        f.locks,
		Idempotency:   f.locks,
		Notifier:      f.notifier,
		OperatorEmail: "ops@shop.test",
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	f.svc.clearBackoff = 0
	return f
}

func (f *fixture) request(key string) PlaceOrderRequest {
	return PlaceOrderRequest{UserID: f.user, ContactEmail: "buyer@shop.test", IdempotencyKey: key}
}

func TestPlaceOrderSuccess(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.PlaceOrder(context.Background(), f.request(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.svc.Wait()

	if res.Order.Total != 25 {
		t.Fatalf("expected total 25, got %v", res.Order.Total)
	}
	if len(res.Order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Order.Items))
	}
	if res.Order.Status != models.StatusPending {
		t.Fatalf("expected pending, got %s", res.Order.Status)
	}
	if !res.CartCleared || res.Replayed {
		t.Fatalf("unexpected result flags: %+v", res)
	}
	if items, _ := f.carts.ListByUser(context.Background(), f.user); len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
	if got := f.products.stock(f.roses); got != 3 {
		t.Fatalf("expected roses stock 3, got %d", got)
	}
	if _, err := f.orders.GetForUser(context.Background(), res.Order.ID, f.user); err != nil {
		t.Fatalf("order not stored: %v", err)
	}
	if len(f.notifier.sent) != 2 || f.notifier.sent[0] != "buyer@shop.test" || f.notifier.sent[1] != "ops@shop.test" {
		t.Fatalf("unexpected notifications: %v", f.notifier.sent)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.carts.items = map[primitive.ObjectID][]models.CartItem{}

	_, err := f.svc.PlaceOrder(context.Background(), f.request(""))
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if f.orders.inserts != 0 {
		t.Fatalf("no order should be created")
	}
}

func TestPlaceOrderSnapshotIgnoresLaterPriceChange(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.PlaceOrder(context.Background(), f.request(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.products.products[f.roses].Price = 99

	stored, err := f.orders.GetForUser(context.Background(), res.Order.ID, f.user)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Total != 25 || stored.Items[0].UnitPrice != 10 {
		t.Fatalf("order changed after price update: %+v", stored)
	}
}

func TestPlaceOrderCartClearFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.carts.failDeletes = 10

	res, err := f.svc.PlaceOrder(context.Background(), f.request(""))
	if err != nil {
		t.Fatalf("cart clear failure must not fail placement: %v", err)
	}
	if res.CartCleared {
		t.Fatalf("expected CartCleared=false")
	}
	if f.carts.deleteCalls != 3 {
		t.Fatalf("expected 3 clear attempts, got %d", f.carts.deleteCalls)
	}
	if f.orders.inserts != 1 {
		t.Fatalf("order should persist, inserts=%d", f.orders.inserts)
	}
}

func TestPlaceOrderCartClearRetrySucceeds(t *testing.T) {
	f := newFixture(t)
	f.carts.failDeletes = 2

	res, err := f.svc.PlaceOrder(context.Background(), f.request(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.CartCleared {
		t.Fatalf("expected cart cleared on third attempt")
	}
}

func TestPlaceOrderInsertFailureRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.orders.insertErr = errors.New("write concern error")

	_, err := f.svc.PlaceOrder(context.Background(), f.request(""))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if f.products.stock(f.roses) != 5 || f.products.stock(f.card) != 3 {
		t.Fatalf("stock not restored: roses=%d card=%d", f.products.stock(f.roses), f.products.stock(f.card))
	}
	if items, _ := f.carts.ListByUser(context.Background(), f.user); len(items) != 2 {
		t.Fatalf("cart must be untouched, got %d items", len(items))
	}
}

func TestPlaceOrderProductUnavailable(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(f *fixture)
		reason string
	}{
		{"inactive", func(f *fixture) { f.products.products[f.card].Active = false }, "no longer sold"},
		{"deleted", func(f *fixture) { delete(f.products.products, f.card) }, "not found"},
		{"short stock", func(f *fixture) { f.products.products[f.card].Stock = 0 }, "insufficient stock"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			c.mutate(f)

			_, err := f.svc.PlaceOrder(context.Background(), f.request(""))
			if !errors.Is(err, ErrProductUnavailable) {
				t.Fatalf("expected ErrProductUnavailable, got %v", err)
			}
			var pe *ProductUnavailableError
			if !errors.As(err, &pe) || pe.ProductID != f.card || pe.Reason != c.reason {
				t.Fatalf("unexpected error detail: %+v", pe)
			}
			if f.orders.inserts != 0 {
				t.Fatalf("no order should be created")
			}
			if f.products.stock(f.roses) != 5 {
				t.Fatalf("roses stock should be untouched")
			}
		})
	}
}

func TestPlaceOrderReserveFailureCompensates(t *testing.T) {
	f := newFixture(t)
	// Stock passes the read check but is gone by the time we reserve.
	f.products.reserveErr[f.card] = store.ErrInsufficientStock

	_, err := f.svc.PlaceOrder(context.Background(), f.request(""))
	if !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable, got %v", err)
	}
	if f.products.stock(f.roses) != 5 {
		t.Fatalf("roses reservation not restored, stock=%d", f.products.stock(f.roses))
	}
	if len(f.products.restored) != 1 || f.products.restored[0] != f.roses {
		t.Fatalf("unexpected restores: %v", f.products.restored)
	}
}

func TestPlaceOrderIdempotentReplay(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.PlaceOrder(context.Background(), f.request("key-1"))
	if err != nil {
		t.Fatalf("first placement: %v", err)
	}
	second, err := f.svc.PlaceOrder(context.Background(), f.request("key-1"))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if !second.Replayed || second.Order.ID != first.Order.ID {
		t.Fatalf("expected replay of %s, got %+v", first.Order.ID.Hex(), second)
	}
	if f.orders.inserts != 1 {
		t.Fatalf("expected one insert, got %d", f.orders.inserts)
	}

	// A different key against the now empty cart is a new attempt.
	if _, err := f.svc.PlaceOrder(context.Background(), f.request("key-2")); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestPlaceOrderReplayRetriesCartClear(t *testing.T) {
	f := newFixture(t)
	f.carts.failDeletes = 100

	first, err := f.svc.PlaceOrder(context.Background(), f.request("k"))
	if err != nil {
		t.Fatalf("first placement: %v", err)
	}
	if first.CartCleared {
		t.Fatalf("expected first placement to report an uncleared cart")
	}

	// Still failing: the replay must not claim the cart is empty.
	replay, err := f.svc.PlaceOrder(context.Background(), f.request("k"))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.Replayed || replay.CartCleared {
		t.Fatalf("expected replay with CartCleared=false, got %+v", replay)
	}
	if items, _ := f.carts.ListByUser(context.Background(), f.user); len(items) != 2 {
		t.Fatalf("expected 2 stale lines, got %d", len(items))
	}

	// Storage recovered: the replay clears the leftover lines.
	f.carts.mu.Lock()
	f.carts.failDeletes = 0
	f.carts.mu.Unlock()
	replay, err = f.svc.PlaceOrder(context.Background(), f.request("k"))
	if err != nil {
		t.Fatalf("second replay: %v", err)
	}
	if !replay.Replayed || !replay.CartCleared {
		t.Fatalf("expected cleared replay, got %+v", replay)
	}
	if items, _ := f.carts.ListByUser(context.Background(), f.user); len(items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(items))
	}
	if f.orders.inserts != 1 {
		t.Fatalf("expected one insert, got %d", f.orders.inserts)
	}
}

func TestPlaceOrderReplayKeepsNewerCart(t *testing.T) {
	f := newFixture(t)
	f.carts.failDeletes = 100

	first, err := f.svc.PlaceOrder(context.Background(), f.request("k"))
	if err != nil {
		t.Fatalf("first placement: %v", err)
	}

	f.carts.mu.Lock()
	f.carts.failDeletes = 0
	lines := f.carts.items[f.user]
	lines[0].UpdatedAt = first.Order.CreatedAt.Add(time.Minute)
	f.carts.mu.Unlock()

	replay, err := f.svc.PlaceOrder(context.Background(), f.request("k"))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.CartCleared {
		t.Fatalf("a cart edited after the order must not be cleared")
	}
	if items, _ := f.carts.ListByUser(context.Background(), f.user); len(items) != 2 {
		t.Fatalf("expected cart untouched, got %d lines", len(items))
	}
}

func TestPlaceOrderInsertSurvivesCallerCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.products.onReserve = cancel

	res, err := f.svc.PlaceOrder(ctx, f.request(""))
	if err != nil {
		t.Fatalf("placement after reservation must complete: %v", err)
	}
	if _, err := f.orders.GetForUser(context.Background(), res.Order.ID, f.user); err != nil {
		t.Fatalf("order not stored: %v", err)
	}
	if f.products.stock(f.roses) != 3 || len(f.products.restored) != 0 {
		t.Fatalf("stock must stay reserved: roses=%d restored=%v", f.products.stock(f.roses), f.products.restored)
	}
	f.svc.Wait()
}

func TestPlaceOrderRejectsConcurrentCheckout(t *testing.T) {
	f := newFixture(t)

	release, err := f.locks.Acquire(context.Background(), cache.Key("checkout", "lock", f.user.Hex()), time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	_, err = f.svc.PlaceOrder(context.Background(), f.request(""))
	if !errors.Is(err, ErrCheckoutInProgress) {
		t.Fatalf("expected ErrCheckoutInProgress, got %v", err)
	}

	release()
	if _, err := f.svc.PlaceOrder(context.Background(), f.request("")); err != nil {
		t.Fatalf("placement after release: %v", err)
	}
}

func TestPlaceOrderNotificationFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")

	res, err := f.svc.PlaceOrder(context.Background(), f.request(""))
	if err != nil {
		t.Fatalf("notification failure must not fail placement: %v", err)
	}
	f.svc.Wait()
	if res.Order.ID.IsZero() || len(f.notifier.sent) == 0 {
		t.Fatalf("expected order and attempted notification")
	}
}

func TestPlaceOrderNotifiesAccountEmail(t *testing.T) {
	f := newFixture(t)
	req := f.request("")
	req.ContactEmail = ""

	if _, err := f.svc.PlaceOrder(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.svc.Wait()
	if len(f.notifier.sent) == 0 || f.notifier.sent[0] != "account@shop.test" {
		t.Fatalf("expected account email first, got %v", f.notifier.sent)
	}
}

func TestNewPlaceOrderRequest(t *testing.T) {
	now := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	uid := primitive.NewObjectID().Hex()
	today := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	cases := []struct {
		name string
		in   PlaceOrderInput
		ok   bool
	}{
		{"minimal", PlaceOrderInput{UserID: uid}, true},
		{"bad user", PlaceOrderInput{UserID: "nope"}, false},
		{"bad email", PlaceOrderInput{UserID: uid, ContactEmail: "not-an-email"}, false},
		{"good email", PlaceOrderInput{UserID: uid, ContactEmail: "a@b.co"}, true},
		{"delivery today", PlaceOrderInput{UserID: uid, Delivery: models.DeliveryDetails{DeliveryDate: &today}}, true},
		{"delivery in past", PlaceOrderInput{UserID: uid, Delivery: models.DeliveryDetails{DeliveryDate: &yesterday}}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewPlaceOrderRequest(c.in, now)
			if c.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !c.ok && !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}

	req, err := NewPlaceOrderRequest(PlaceOrderInput{
		UserID:         uid,
		IdempotencyKey: "  abc  ",
		Delivery:       models.DeliveryDetails{RecipientName: "  Sari "},
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.IdempotencyKey != "abc" || req.Delivery.RecipientName != "Sari" {
		t.Fatalf("fields not trimmed: %+v", req)
	}
}
