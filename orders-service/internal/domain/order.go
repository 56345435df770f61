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

type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	ShippingInfo  ShippingInfo    `json:"shippingInfo"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	OrderDate     time.Time       `json:"orderDate"`
	CreatedAt     time.Time       `json:"createdAt"`
}
