package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"giftshop/cache"
	"giftshop/models"
	"giftshop/notification"
	"giftshop/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type CartStore interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type CatalogStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) error
	RestoreStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

type OrderStore interface {
	Insert(ctx context.Context, order models.Order) error
	GetForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error)
}

type UserLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

type Deps struct {
	Carts    CartStore
	Products CatalogStore
	Orders   OrderStore
	// Users resolves the account email when the caller gave no contact email. Optional.
	Users       UserLookup
	Locker      cache.Locker
	Idempotency cache.Cache
	Notifier    notification.Sender
	// OperatorEmail receives a copy of every confirmation when set.
	OperatorEmail string
	Logger        *slog.Logger
}

type Result struct {
	Order       models.Order
	CartCleared bool
	Replayed    bool
}

type Service struct {
	carts    CartStore
	products CatalogStore
	orders   OrderStore
	users    UserLookup
	locker   cache.Locker
	idem     cache.Cache
	notifier notification.Sender
	operator string
	log      *slog.Logger
	now      func() time.Time

	maxConcurrent  int
	lockTTL        time.Duration
	idempotencyTTL time.Duration
	notifyTimeout  time.Duration
	insertTimeout  time.Duration
	clearAttempts  int
	clearBackoff   time.Duration

	wg sync.WaitGroup
}

func NewService(d Deps) *Service {
	mem := cache.NewMemory()
	s := &Service{
		carts:    d.Carts,
		products: d.Products,
		orders:   d.Orders,
		users:    d.Users,
		locker:   d.Locker,
		idem:     d.Idempotency,
		notifier: d.Notifier,
		operator: d.OperatorEmail,
		log:      d.Logger,
		now:      time.Now,

		maxConcurrent:  8,
		lockTTL:        30 * time.Second,
		idempotencyTTL: 24 * time.Hour,
		notifyTimeout:  15 * time.Second,
		insertTimeout:  10 * time.Second,
		clearAttempts:  3,
		clearBackoff:   100 * time.Millisecond,
	}
	if s.locker == nil {
		s.locker = mem
	}
	if s.idem == nil {
		s.idem = mem
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Wait blocks until every background notification has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// PlaceOrder turns the user's current cart into a pending order. On any error
// before the order is stored, no stock stays reserved and the cart is untouched.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (Result, error) {
	if req.UserID.IsZero() {
		return Result{}, fmt.Errorf("%w: missing user", ErrInvalidRequest)
	}
	log := s.log.With(slog.String("user_id", req.UserID.Hex()))

	if req.IdempotencyKey != "" {
		if order, ok := s.replay(ctx, req); ok {
			log.InfoContext(ctx, "checkout replayed", slog.String("order_id", order.ID.Hex()))
			return Result{Order: order, CartCleared: s.settleReplayedCart(ctx, order), Replayed: true}, nil
		}
	}

	release, err := s.locker.Acquire(ctx, cache.Key("checkout", "lock", req.UserID.Hex()), s.lockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLocked) {
			return Result{}, ErrCheckoutInProgress
		}
		return Result{}, fmt.Errorf("acquire checkout lock: %w", err)
	}
	defer release()

	// A request that raced us to the lock may have completed the same key.
	if req.IdempotencyKey != "" {
		if order, ok := s.replay(ctx, req); ok {
			return Result{Order: order, CartCleared: s.settleReplayedCart(ctx, order), Replayed: true}, nil
		}
	}

	items, err := s.carts.ListByUser(ctx, req.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: list cart: %w", ErrPersistence, err)
	}
	if len(items) == 0 {
		return Result{}, ErrEmptyCart
	}

	lines, err := s.priceLines(ctx, items)
	if err != nil {
		return Result{}, err
	}

	order, err := models.NewOrder(req.UserID, lines, req.Delivery, req.ContactEmail, s.now())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	reserved, err := s.reserve(ctx, order.Items)
	if err != nil {
		return Result{}, err
	}

	// From here on the caller going away must not leave a half-finished checkout.
	post := context.WithoutCancel(ctx)

	insertCtx, cancel := context.WithTimeout(post, s.insertTimeout)
	err = s.orders.Insert(insertCtx, order)
	cancel()
	if err != nil {
		s.restore(post, reserved)
		log.ErrorContext(ctx, "insert order failed", slog.String("error", err.Error()))
		return Result{}, fmt.Errorf("%w: insert order: %w", ErrPersistence, err)
	}

	cleared := s.clearCart(post, req.UserID)
	if !cleared {
		log.ErrorContext(ctx, "cart not cleared after order placed", slog.String("order_id", order.ID.Hex()))
	}

	if req.IdempotencyKey != "" {
		if err := s.idem.Set(post, s.idempotencyKey(req), order.ID.Hex(), s.idempotencyTTL); err != nil {
			log.WarnContext(ctx, "store idempotency key failed", slog.String("error", err.Error()))
		}
	}

	s.notify(post, order)

	log.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID.Hex()),
		slog.Int("items", len(order.Items)),
		slog.Float64("total", order.Total),
		slog.Bool("cart_cleared", cleared),
	)
	return Result{Order: order, CartCleared: cleared}, nil
}

func (s *Service) idempotencyKey(req PlaceOrderRequest) string {
	return cache.Key("checkout", "idempotency", req.UserID.Hex()+":"+req.IdempotencyKey)
}

func (s *Service) replay(ctx context.Context, req PlaceOrderRequest) (models.Order, bool) {
	val, err := s.idem.Get(ctx, s.idempotencyKey(req))
	if err != nil {
		s.log.WarnContext(ctx, "idempotency lookup failed", slog.String("error", err.Error()))
		return models.Order{}, false
	}
	if val == "" {
		return models.Order{}, false
	}
	id, err := primitive.ObjectIDFromHex(val)
	if err != nil {
		return models.Order{}, false
	}
	order, err := s.orders.GetForUser(ctx, id, req.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.WarnContext(ctx, "idempotent order lookup failed", slog.String("error", err.Error()))
		}
		return models.Order{}, false
	}
	return order, true
}

// settleReplayedCart reports whether the replayed order's cart is gone. Lines left
// behind by a failed clear are cleared again; a cart the user has edited since
// the order was placed is left alone.
func (s *Service) settleReplayedCart(ctx context.Context, order models.Order) bool {
	items, err := s.carts.ListByUser(ctx, order.UserID)
	if err != nil {
		s.log.WarnContext(ctx, "list cart on replay failed", slog.String("error", err.Error()))
		return false
	}
	if len(items) == 0 {
		return true
	}
	for _, it := range items {
		if it.UpdatedAt.After(order.CreatedAt) {
			return false
		}
	}

	cleared := s.clearCart(context.WithoutCancel(ctx), order.UserID)
	if !cleared {
		s.log.ErrorContext(ctx, "cart still not cleared on replay", slog.String("order_id", order.ID.Hex()))
	}
	return cleared
}

// priceLines re-reads every product in the cart and snapshots its current name and price.
func (s *Service) priceLines(ctx context.Context, items []models.CartItem) ([]models.LineInput, error) {
	lines := make([]models.LineInput, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range items {
		idx := idx
		it := items[idx]
		g.Go(func() error {
			p, err := s.products.Get(gctx, it.ProductID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return unavailable(it.ProductID, "not found")
				}
				return fmt.Errorf("%w: load product %s: %w", ErrPersistence, it.ProductID.Hex(), err)
			}
			if !p.Active {
				return unavailable(it.ProductID, "no longer sold")
			}
			if it.Quantity <= 0 || it.Quantity > p.Stock {
				return unavailable(it.ProductID, "insufficient stock")
			}
			lines[idx] = models.LineInput{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  it.Quantity,
				UnitPrice: p.Price,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lines, nil
}

// reserve decrements stock line by line. On failure everything reserved so far is put back.
func (s *Service) reserve(ctx context.Context, items []models.OrderItem) ([]models.OrderItem, error) {
	reserved := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		if err := s.products.ReserveStock(ctx, it.ProductID, it.Quantity); err != nil {
			s.restore(context.WithoutCancel(ctx), reserved)
			if errors.Is(err, store.ErrInsufficientStock) {
				return nil, unavailable(it.ProductID, "insufficient stock")
			}
			return nil, fmt.Errorf("%w: reserve stock: %w", ErrPersistence, err)
		}
		reserved = append(reserved, it)
	}
	return reserved, nil
}

func (s *Service) restore(ctx context.Context, reserved []models.OrderItem) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for i := len(reserved) - 1; i >= 0; i-- {
		it := reserved[i]
		if err := s.products.RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
			s.log.ErrorContext(ctx, "restore stock failed",
				slog.String("product_id", it.ProductID.Hex()),
				slog.Int("quantity", it.Quantity),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *Service) clearCart(ctx context.Context, userID primitive.ObjectID) bool {
	for attempt := 1; attempt <= s.clearAttempts; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := s.carts.DeleteByUser(cctx, userID)
		cancel()
		if err == nil {
			return true
		}
		s.log.WarnContext(ctx, "clear cart failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt < s.clearAttempts {
			time.Sleep(time.Duration(attempt) * s.clearBackoff)
		}
	}
	return false
}

func (s *Service) notify(ctx context.Context, order models.Order) {
	if s.notifier == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()

		subject, body := notification.OrderConfirmation(order)
		to := order.ContactEmail
		if to == "" && s.users != nil {
			if u, err := s.users.FindByID(ctx, order.UserID); err == nil {
				to = u.Email
			}
		}

		for _, rcpt := range []string{to, s.operator} {
			if rcpt == "" {
				continue
			}
			if err := s.notifier.Send(ctx, rcpt, subject, body); err != nil {
				s.log.WarnContext(ctx, "order notification failed",
					slog.String("order_id", order.ID.Hex()),
					slog.String("to", rcpt),
					slog.String("error", err.Error()),
				)
			}
		}
	}()
}
