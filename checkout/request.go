package checkout

import (
	"fmt"
	"strings"
	"time"

	"giftshop/models"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

const maxIdempotencyKeyLen = 128

// PlaceOrderInput is the raw caller input, usually straight from the HTTP layer.
type PlaceOrderInput struct {
	UserID         string
	ContactEmail   string
	Delivery       models.DeliveryDetails
	IdempotencyKey string
}

// PlaceOrderRequest is a validated PlaceOrderInput. Build it with NewPlaceOrderRequest.
type PlaceOrderRequest struct {
	UserID         primitive.ObjectID
	ContactEmail   string
	Delivery       models.DeliveryDetails
	IdempotencyKey string
}

func NewPlaceOrderRequest(in PlaceOrderInput, now time.Time) (PlaceOrderRequest, error) {
	uid, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.UserID))
	if err != nil || uid.IsZero() {
		return PlaceOrderRequest{}, fmt.Errorf("%w: invalid user id", ErrInvalidRequest)
	}

	email := strings.TrimSpace(in.ContactEmail)
	if email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return PlaceOrderRequest{}, fmt.Errorf("%w: invalid contact email", ErrInvalidRequest)
		}
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return PlaceOrderRequest{}, fmt.Errorf("%w: idempotency key too long", ErrInvalidRequest)
	}

	d := in.Delivery
	d.RecipientName = strings.TrimSpace(d.RecipientName)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	d.CardMessage = strings.TrimSpace(d.CardMessage)
	if d.DeliveryDate != nil {
		date := d.DeliveryDate.UTC()
		y, m, day := now.UTC().Date()
		if date.Before(time.Date(y, m, day, 0, 0, 0, 0, time.UTC)) {
			return PlaceOrderRequest{}, fmt.Errorf("%w: delivery date is in the past", ErrInvalidRequest)
		}
		d.DeliveryDate = &date
	}

	return PlaceOrderRequest{
		UserID:         uid,
		ContactEmail:   email,
		Delivery:       d,
		IdempotencyKey: key,
	}, nil
}
