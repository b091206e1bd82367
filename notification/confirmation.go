package notification

import (
	"fmt"
	"strings"

	"giftshop/models"
)

// OrderConfirmation renders the subject and plain-text body sent after checkout.
func OrderConfirmation(o models.Order) (subject, body string) {
	subject = fmt.Sprintf("Order %s confirmed", o.ID.Hex())

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order!\n\nOrder: %s\nStatus: %s\n\n", o.ID.Hex(), o.Status)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d @ %.2f = %.2f\n", it.Name, it.Quantity, it.UnitPrice, it.Subtotal)
	}
	fmt.Fprintf(&b, "\nTotal: %.2f\n", o.Total)

	d := o.Delivery
	if d.RecipientName != "" || d.Address != "" {
		b.WriteString("\nDeliver to:\n")
		if d.RecipientName != "" {
			fmt.Fprintf(&b, "%s\n", d.RecipientName)
		}
		if d.Address != "" {
			fmt.Fprintf(&b, "%s\n", strings.TrimSpace(strings.Join([]string{d.Address, d.City, d.PostalCode}, " ")))
		}
		if d.DeliveryDate != nil {
			fmt.Fprintf(&b, "On: %s\n", d.DeliveryDate.Format("2006-01-02"))
		}
	}
	if d.CardMessage != "" {
		fmt.Fprintf(&b, "\nCard message: %q\n", d.CardMessage)
	}
	return subject, b.String()
}
