package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodPayPal PaymentMethod = "PayPal"
	PaymentMethodCOD    PaymentMethod = "COD"
)

// remember to add new methods to validPaymentMethods
var validPaymentMethods = map[PaymentMethod]struct{}{
	PaymentMethodPayPal: {},
	PaymentMethodCOD:    {},
}

func ToPaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if _, ok := validPaymentMethods[m]; ok {
		return m, nil
	}
	return "", errors.New("invalid payment method")
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// remember to add new statuses to validPaymentStatuses
var validPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusPending: {},
	PaymentStatusPaid:    {},
	PaymentStatusFailed:  {},
}

func ToPaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if _, ok := validPaymentStatuses[status]; ok {
		return status, nil
	}
	return "", errors.New("invalid payment status")
}

// PaymentStatusFor is Paid only for a PayPal order with a captured
// transaction id; everything else starts Pending.
func PaymentStatusFor(method PaymentMethod, paymentID string) PaymentStatus {
	if method == PaymentMethodPayPal && strings.TrimSpace(paymentID) != "" {
		return PaymentStatusPaid
	}
	return PaymentStatusPending
}

// OrderLineItem is a frozen copy of a cart line taken at checkout.
type OrderLineItem struct {
	ProductID    string
	Size         SizeSpec
	Color        string
	ProductPrice decimal.Decimal
}

func (i OrderLineItem) IsCustomSize() bool {
	return i.Size.IsCustom()
}

func (i OrderLineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineItemJSON{
		ProductID:    i.ProductID,
		Size:         i.Size,
		Color:        i.Color,
		ProductPrice: i.ProductPrice,
		IsCustomSize: i.Size.IsCustom(),
	})
}

func (i *OrderLineItem) UnmarshalJSON(data []byte) error {
	var raw lineItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = OrderLineItem{
		ProductID:    raw.ProductID,
		Size:         raw.Size,
		Color:        raw.Color,
		ProductPrice: raw.ProductPrice,
	}
	return nil
}

// Order is immutable after creation apart from PaymentStatus.
type Order struct {
	ID            string          `json:"id"`
	PurchasedBy   string          `json:"purchasedBy"`
	OrderProducts []OrderLineItem `json:"orderProducts"`
	DatePurchased time.Time       `json:"datePurchased"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	PaymentID     *string         `json:"paymentId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// Subtotal sums the snapshot prices, one unit per regular size and one per
// custom pair.
func (o Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.OrderProducts {
		total = total.Add(item.ProductPrice.Mul(decimal.NewFromInt(int64(item.Size.Units()))))
	}
	return total
}
