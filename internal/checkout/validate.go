package checkout

import (
	"regexp"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/ceitcs/buildbook/internal/common"
)

var (
	cardDigits = regexp.MustCompile(`^\d{16}$`)
	expiryMMYY = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvDigits  = regexp.MustCompile(`^\d{3,4}$`)
)

type billingInput struct {
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email_loose"`
	CompanyName string `json:"companyName" validate:"required"`
	Address     string `json:"address" validate:"required"`
	City        string `json:"city" validate:"required"`
	Country     string `json:"country" validate:"required"`
	PostalCode  string `json:"postalCode" validate:"required"`
}

type paymentInput struct {
	PaymentMethod string `json:"paymentMethod" validate:"oneof=creditCard paypal bankTransfer invoice"`
	AgreeToTerms  bool   `json:"agreeToTerms" validate:"required"`
}

type cardInput struct {
	CardName   string `json:"cardName" validate:"required"`
	CardNumber string `json:"cardNumber" validate:"required,card16"`
	ExpiryDate string `json:"expiryDate" validate:"required,expiry_mmyy"`
	CVV        string `json:"cvv" validate:"required,cvv"`
}

var messages = common.Messages{
	"fullName":      {"required": "Full name is required"},
	"email":         {"required": "Email is required", "email_loose": "Email format is invalid"},
	"companyName":   {"required": "Company name is required"},
	"address":       {"required": "Address is required"},
	"city":          {"required": "City is required"},
	"country":       {"required": "Country is required"},
	"postalCode":    {"required": "Postal code is required"},
	"paymentMethod": {"*": "Unsupported payment method"},
	"agreeToTerms":  {"*": "You must agree to the terms to continue"},
	"cardName":      {"required": "Cardholder name is required"},
	"cardNumber":    {"required": "Card number is required", "card16": "Card number should be 16 digits"},
	"expiryDate":    {"required": "Expiry date is required", "expiry_mmyy": "Expiry date should be in MM/YY format"},
	"cvv":           {"required": "CVV is required", "cvv": "CVV should be 3 or 4 digits"},
}

// Validator checks the fields owned by each wizard step.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the card-specific tags on top of the shared ones.
func NewValidator() *Validator {
	v := common.NewValidator()
	_ = v.RegisterValidation("card16", func(fl validator.FieldLevel) bool {
		return cardDigits.MatchString(strings.Join(strings.Fields(fl.Field().String()), ""))
	})
	_ = v.RegisterValidation("expiry_mmyy", func(fl validator.FieldLevel) bool {
		return expiryMMYY.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("cvv", func(fl validator.FieldLevel) bool {
		return cvvDigits.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Billing validates the billing step.
func (val *Validator) Billing(f Form) (common.FieldErrors, error) {
	return common.FieldErrorsFrom(val.v.Struct(billingInput{
		FullName:    f.FullName,
		Email:       f.Email,
		CompanyName: f.CompanyName,
		Address:     f.Address,
		City:        f.City,
		Country:     f.Country,
		PostalCode:  f.PostalCode,
	}), messages)
}

// Payment validates the payment step. Card fields are only checked for card
// payments; terms must be accepted for every method.
func (val *Validator) Payment(f Form) (common.FieldErrors, error) {
	fields, err := common.FieldErrorsFrom(val.v.Struct(paymentInput{
		PaymentMethod: f.PaymentMethod,
		AgreeToTerms:  f.AgreeToTerms,
	}), messages)
	if err != nil {
		return nil, err
	}
	if f.PaymentMethod != MethodCreditCard {
		return fields, nil
	}
	cardFields, err := common.FieldErrorsFrom(val.v.Struct(cardInput{
		CardName:   f.CardName,
		CardNumber: f.CardNumber,
		ExpiryDate: f.ExpiryDate,
		CVV:        f.CVV,
	}), messages)
	if err != nil {
		return nil, err
	}
	if len(cardFields) == 0 {
		return fields, nil
	}
	if fields == nil {
		fields = make(common.FieldErrors, len(cardFields))
	}
	for k, v := range cardFields {
		fields[k] = v
	}
	return fields, nil
}
