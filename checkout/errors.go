package checkout

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidRequest     = errors.New("checkout: invalid request")
	ErrEmptyCart          = errors.New("checkout: cart is empty")
	ErrProductUnavailable = errors.New("checkout: product unavailable")
	ErrCheckoutInProgress = errors.New("checkout: another checkout is in progress")
	ErrPersistence        = errors.New("checkout: persistence failure")
)

// ProductUnavailableError names the cart line that blocked placement.
type ProductUnavailableError struct {
	ProductID primitive.ObjectID
	Reason    string
}

func (e *ProductUnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("product %s is unavailable", e.ProductID.Hex())
	}
	return fmt.Sprintf("product %s is unavailable: %s", e.ProductID.Hex(), e.Reason)
}

func (e *ProductUnavailableError) Is(target error) bool {
	return target == ErrProductUnavailable
}

func unavailable(id primitive.ObjectID, reason string) error {
	return &ProductUnavailableError{ProductID: id, Reason: reason}
}
