package checkout

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type requiredField struct {
	name  string
	value func(domain.ShippingInfo) string
}

// Checked in this order; the first failure is reported.
var requiredShippingFields = []requiredField{
	{"fullName", func(s domain.ShippingInfo) string { return s.FullName }},
	{"address1", func(s domain.ShippingInfo) string { return s.Address1 }},
	{"city", func(s domain.ShippingInfo) string { return s.City }},
	{"stateProvince", func(s domain.ShippingInfo) string { return s.StateProvince }},
	{"zipPostal", func(s domain.ShippingInfo) string { return s.ZipPostal }},
	{"country", func(s domain.ShippingInfo) string { return s.Country }},
	{"email", func(s domain.ShippingInfo) string { return s.Email }},
	{"phone", func(s domain.ShippingInfo) string { return s.Phone }},
}

func ValidateShipping(info domain.ShippingInfo) *ValidationError {
	for _, f := range requiredShippingFields {
		if f.value(info) == "" {
			return &ValidationError{
				Step:    domain.StepShipping,
				Field:   f.name,
				Message: "Please fill in the " + fieldWords(f.name) + " field.",
			}
		}
	}
	if !emailPattern.MatchString(info.Email) {
		return &ValidationError{
			Step:    domain.StepShipping,
			Field:   "email",
			Message: "Please enter a valid email address.",
		}
	}
	return nil
}

func ValidatePayment(method domain.PaymentMethod) *ValidationError {
	if !method.Valid() {
		return &ValidationError{
			Step:    domain.StepPayment,
			Field:   "paymentMethod",
			Message: "Please select a payment method.",
		}
	}
	return nil
}

// fieldWords turns "stateProvince" into "state province".
func fieldWords(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
