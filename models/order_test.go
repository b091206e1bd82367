package models

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewOrderTotals(t *testing.T) {
	user := primitive.NewObjectID()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	o, err := NewOrder(user, []LineInput{
		{ProductID: a, Name: "Red Roses", Quantity: 2, UnitPrice: 10},
		{ProductID: b, Name: "Greeting Card", Quantity: 1, UnitPrice: 5},
	}, DeliveryDetails{City: "Bandung"}, "", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Total != 25 {
		t.Fatalf("expected total 25, got %v", o.Total)
	}
	if len(o.Items) != 2 || o.Items[0].Subtotal != 20 || o.Items[1].Subtotal != 5 {
		t.Fatalf("unexpected items: %+v", o.Items)
	}
	if o.Status != StatusPending {
		t.Fatalf("expected pending, got %s", o.Status)
	}
	if o.ID.IsZero() {
		t.Fatalf("expected generated id")
	}
}

func TestNewOrderDecimalRounding(t *testing.T) {
	o, err := NewOrder(primitive.NewObjectID(), []LineInput{
		{ProductID: primitive.NewObjectID(), Quantity: 3, UnitPrice: 0.1},
		{ProductID: primitive.NewObjectID(), Quantity: 1, UnitPrice: 0.2},
	}, DeliveryDetails{}, "", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Total != 0.5 {
		t.Fatalf("expected 0.5, got %v", o.Total)
	}
}

func TestNewOrderValidation(t *testing.T) {
	user := primitive.NewObjectID()

	t.Run("no lines", func(t *testing.T) {
		_, err := NewOrder(user, nil, DeliveryDetails{}, "", time.Now())
		if !errors.Is(err, ErrInvalidOrderItems) {
			t.Fatalf("expected ErrInvalidOrderItems, got %v", err)
		}
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := NewOrder(user, []LineInput{{ProductID: primitive.NewObjectID(), Quantity: 0, UnitPrice: 1}}, DeliveryDetails{}, "", time.Now())
		if !errors.Is(err, ErrInvalidOrderItems) {
			t.Fatalf("expected ErrInvalidOrderItems, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := NewOrder(primitive.NilObjectID, []LineInput{{ProductID: primitive.NewObjectID(), Quantity: 1, UnitPrice: 1}}, DeliveryDetails{}, "", time.Now())
		if !errors.Is(err, ErrInvalidOrderItems) {
			t.Fatalf("expected ErrInvalidOrderItems, got %v", err)
		}
	})
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusFulfilled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusPending, StatusFulfilled, false},
		{StatusFulfilled, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Fatalf("%s -> %s: got %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("processing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOrderStatus("paid"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestPreviousStatuses(t *testing.T) {
	prev := PreviousStatuses(StatusCancelled)
	if len(prev) != 2 {
		t.Fatalf("expected 2 predecessors of cancelled, got %v", prev)
	}
	if len(PreviousStatuses(StatusPending)) != 0 {
		t.Fatalf("pending should have no predecessors")
	}
}
