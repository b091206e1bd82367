package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusFulfilled  OrderStatus = "fulfilled"
	StatusCancelled  OrderStatus = "cancelled"
)

var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusFulfilled, StatusCancelled},
	StatusFulfilled:  {},
	StatusCancelled:  {},
}

var (
	ErrInvalidStatus     = errors.New("order: invalid status")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrInvalidOrderItems = errors.New("order: invalid items")
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := validTransitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PreviousStatuses returns every status from which next is reachable in one step.
func PreviousStatuses(next OrderStatus) []OrderStatus {
	out := []OrderStatus{}
	for from, tos := range validTransitions {
		for _, to := range tos {
			if to == next {
				out = append(out, from)
			}
		}
	}
	return out
}

// OrderItem is the frozen line snapshot taken at placement time.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	UnitPrice float64            `bson:"unitPrice" json:"unitPrice"`
	Subtotal  float64            `bson:"subtotal" json:"subtotal"`
}

type DeliveryDetails struct {
	RecipientName string     `bson:"recipientName,omitempty" json:"recipientName,omitempty"`
	Phone         string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Address       string     `bson:"address,omitempty" json:"address,omitempty"`
	City          string     `bson:"city,omitempty" json:"city,omitempty"`
	PostalCode    string     `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	DeliveryDate  *time.Time `bson:"deliveryDate,omitempty" json:"deliveryDate,omitempty"`
	CardMessage   string     `bson:"cardMessage,omitempty" json:"cardMessage,omitempty"`
}

type Order struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Items        []OrderItem        `bson:"items" json:"items"`
	Total        float64            `bson:"total" json:"total"`
	Status       OrderStatus        `bson:"status" json:"status"`
	Delivery     DeliveryDetails    `bson:"delivery" json:"delivery"`
	ContactEmail string             `bson:"contactEmail,omitempty" json:"contactEmail,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LineInput is one priced cart line handed to NewOrder.
type LineInput struct {
	ProductID primitive.ObjectID
	Name      string
	Quantity  int
	UnitPrice float64
}

// NewOrder builds a pending order whose line subtotals and total are computed once,
// from the given unit prices, in decimal arithmetic rounded to cents.
func NewOrder(userID primitive.ObjectID, lines []LineInput, delivery DeliveryDetails, contactEmail string, now time.Time) (Order, error) {
	if userID.IsZero() {
		return Order{}, fmt.Errorf("%w: missing user", ErrInvalidOrderItems)
	}
	if len(lines) == 0 {
		return Order{}, ErrInvalidOrderItems
	}

	items := make([]OrderItem, 0, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		if l.ProductID.IsZero() || l.Quantity <= 0 || l.UnitPrice < 0 {
			return Order{}, fmt.Errorf("%w: line %d", ErrInvalidOrderItems, i)
		}
		unit := decimal.NewFromFloat(l.UnitPrice).Round(2)
		sub := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(sub)

		items = append(items, OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: unit.InexactFloat64(),
			Subtotal:  sub.InexactFloat64(),
		})
	}

	now = now.UTC()
	return Order{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		Items:        items,
		Total:        total.Round(2).InexactFloat64(),
		Status:       StatusPending,
		Delivery:     delivery,
		ContactEmail: contactEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
