package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentPayPal       PaymentMethod = "paypal"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCreditCard, PaymentPayPal, PaymentBankTransfer:
		return true
	}
	return false
}

type ShippingInfo struct {
	FullName      string `json:"fullName"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	City          string `json:"city"`
	StateProvince string `json:"stateProvince"`
	ZipPostal     string `json:"zipPostal"`
	Country       string `json:"country"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

type OrderItem struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderRequest is the payload sent to the orders service.
type OrderRequest struct {
	ShippingInfo  ShippingInfo    `json:"shippingInfo"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	OrderDate     time.Time       `json:"orderDate"`
}

// OrderReceipt is the order as returned by the orders service. Every field
// is optional; missing ones are filled from the request.
type OrderReceipt struct {
	ID            string           `json:"id,omitempty"`
	ShippingInfo  *ShippingInfo    `json:"shippingInfo,omitempty"`
	PaymentMethod PaymentMethod    `json:"paymentMethod,omitempty"`
	Items         []OrderItem      `json:"items,omitempty"`
	TotalAmount   *decimal.Decimal `json:"totalAmount,omitempty"`
	OrderDate     *time.Time       `json:"orderDate,omitempty"`
}

type OrderConfirmation struct {
	OrderID       string        `json:"orderId"`
	Date          time.Time     `json:"date"`
	ShippingInfo  ShippingInfo  `json:"shippingInfo"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Items         []OrderItem   `json:"items"`
	Total         string        `json:"total"`
}

// CheckoutState is a read-only copy of a checkout session.
type CheckoutState struct {
	Step          CheckoutStep       `json:"step"`
	ShippingInfo  ShippingInfo       `json:"shippingInfo"`
	PaymentMethod PaymentMethod      `json:"paymentMethod,omitempty"`
	OrderResult   *OrderConfirmation `json:"orderResult,omitempty"`
	Total         string             `json:"total"`
	CartEmpty     bool               `json:"cartEmpty"`
	Submitting    bool               `json:"submitting"`
	Message       string             `json:"message,omitempty"`
}
