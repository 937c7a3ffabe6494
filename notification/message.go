package notification

import (
	"fmt"
	"strings"

	"github.com/junaidrashid-git/storefront-api/models"
)

// FormatOrderMessage renders the confirmation sent to a customer after checkout.
func FormatOrderMessage(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order #%d!\n", o.ID)
	fmt.Fprintf(&b, "Status: %s\n", o.Status)
	fmt.Fprintf(&b, "Total: %s\n", o.TotalAmount.StringFixed(2))
	fmt.Fprintf(&b, "Payment: %s\n", o.PaymentMethod)
	fmt.Fprintf(&b, "Delivery address: %s", o.Address)
	return b.String()
}
