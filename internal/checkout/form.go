package checkout

import "strings"

// Payment methods accepted at the payment step.
const (
	MethodCreditCard   = "creditCard"
	MethodPayPal       = "paypal"
	MethodBankTransfer = "bankTransfer"
	MethodInvoice      = "invoice"
)

// Form is the flat checkout record shared by every wizard step.
type Form struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	CompanyName    string `json:"companyName"`
	PhoneNumber    string `json:"phoneNumber"`
	Address        string `json:"address"`
	City           string `json:"city"`
	Country        string `json:"country"`
	PostalCode     string `json:"postalCode"`
	SameAsBilling  bool   `json:"sameAsBilling"`
	LicenseCompany string `json:"licenseCompany"`
	LicenseEmail   string `json:"licenseEmail"`

	PaymentMethod       string `json:"paymentMethod"`
	CardName            string `json:"cardName"`
	CardNumber          string `json:"cardNumber"`
	ExpiryDate          string `json:"expiryDate"`
	CVV                 string `json:"cvv"`
	PurchaseOrderNumber string `json:"purchaseOrderNumber"`
	AgreeToTerms        bool   `json:"agreeToTerms"`
}

// DefaultForm returns the initial form state.
func DefaultForm() Form {
	return Form{PaymentMethod: MethodCreditCard, SameAsBilling: true}
}

// FormPatch carries a partial update. Nil fields are left untouched.
type FormPatch struct {
	FullName       *string `json:"fullName"`
	Email          *string `json:"email"`
	CompanyName    *string `json:"companyName"`
	PhoneNumber    *string `json:"phoneNumber"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	Country        *string `json:"country"`
	PostalCode     *string `json:"postalCode"`
	SameAsBilling  *bool   `json:"sameAsBilling"`
	LicenseCompany *string `json:"licenseCompany"`
	LicenseEmail   *string `json:"licenseEmail"`

	PaymentMethod       *string `json:"paymentMethod"`
	CardName            *string `json:"cardName"`
	CardNumber          *string `json:"cardNumber"`
	ExpiryDate          *string `json:"expiryDate"`
	CVV                 *string `json:"cvv"`
	PurchaseOrderNumber *string `json:"purchaseOrderNumber"`
	AgreeToTerms        *bool   `json:"agreeToTerms"`
}

// Apply merges p into f. Card number and expiry are normalised to their
// display format as they are typed.
func (f *Form) Apply(p FormPatch) {
	setString(&f.FullName, p.FullName)
	setString(&f.Email, p.Email)
	setString(&f.CompanyName, p.CompanyName)
	setString(&f.PhoneNumber, p.PhoneNumber)
	setString(&f.Address, p.Address)
	setString(&f.City, p.City)
	setString(&f.Country, p.Country)
	setString(&f.PostalCode, p.PostalCode)
	setBool(&f.SameAsBilling, p.SameAsBilling)
	setString(&f.LicenseCompany, p.LicenseCompany)
	setString(&f.LicenseEmail, p.LicenseEmail)
	setString(&f.PaymentMethod, p.PaymentMethod)
	setString(&f.CardName, p.CardName)
	if p.CardNumber != nil {
		f.CardNumber = FormatCardNumber(*p.CardNumber)
	}
	if p.ExpiryDate != nil {
		f.ExpiryDate = FormatExpiry(*p.ExpiryDate)
	}
	setString(&f.CVV, p.CVV)
	setString(&f.PurchaseOrderNumber, p.PurchaseOrderNumber)
	setBool(&f.AgreeToTerms, p.AgreeToTerms)
}

// Redacted hides card secrets for responses: only the last four digits of the
// card number survive and the CVV is dropped.
func (f Form) Redacted() Form {
	digits := onlyDigits(f.CardNumber)
	if len(digits) > 4 {
		f.CardNumber = strings.Repeat("•", len(digits)-4) + digits[len(digits)-4:]
	}
	if f.CVV != "" {
		f.CVV = "•••"
	}
	return f
}

// LicenseHolder returns the company and email the license is issued to.
func (f Form) LicenseHolder() (company, email string) {
	if f.SameAsBilling || (f.LicenseCompany == "" && f.LicenseEmail == "") {
		return f.CompanyName, f.Email
	}
	return f.LicenseCompany, f.LicenseEmail
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
