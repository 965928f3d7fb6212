package domain

import (
	"strconv"
	"strings"
)

// CheckoutPlaceholder is replaced with the product id in checkout URL templates.
const CheckoutPlaceholder = "{pid}"

// CheckoutURL builds the external checkout address of a product.
func CheckoutURL(template string, productID int) string {
	return strings.ReplaceAll(template, CheckoutPlaceholder, strconv.Itoa(productID))
}
