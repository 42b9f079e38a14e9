package partner

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Customer represents a WhatsApp storefront customer. The canonical phone is
// the primary identity key; the Brains account code is a secondary linkage
// that may be absent.
type Customer struct {
	shared.BaseAggregateRoot
	Phone             string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(200)"`
	Email             string          `gorm:"type:varchar(200)"`
	Address           string          `gorm:"type:text"`
	BrainsAccountCode *string         `gorm:"type:varchar(50);uniqueIndex"`
	Balance           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreditLimit       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a customer from a canonical phone. All other fields
// start empty and are filled either during checkout or by a Brains sync.
func NewCustomer(phone string) (*Customer, error) {
	if phone == "" {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone cannot be empty")
	}
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Phone:             phone,
		Balance:           decimal.Zero,
		CreditLimit:       decimal.Zero,
	}, nil
}

// SetName sets the customer's name as captured during checkout
func (c *Customer) SetName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// SetEmail sets the customer's email. Empty is allowed: email is optional in
// the checkout dialog.
func (c *Customer) SetEmail(email string) error {
	if email != "" && !ValidEmail(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	c.Email = email
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// SetAddress sets the customer's delivery address
func (c *Customer) SetAddress(address string) error {
	if address == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot be empty")
	}
	if len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	c.Address = address
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// LinkBrainsAccount attaches the Brains account code. At most one customer
// may carry a given code; the storage layer enforces uniqueness.
func (c *Customer) LinkBrainsAccount(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	c.BrainsAccountCode = &code
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// RefreshFinancials overwrites balance and credit limit. Brains is the system
// of record for both, so a sync always wins here.
func (c *Customer) RefreshFinancials(balance, creditLimit decimal.Decimal) {
	c.Balance = balance
	c.CreditLimit = creditLimit
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// FillFromSync fills name, email and address only where the existing field is
// empty. Conversational data captured during checkout is never downgraded by
// a sync.
func (c *Customer) FillFromSync(name, email, address string) {
	changed := false
	if c.Name == "" && name != "" {
		c.Name = name
		changed = true
	}
	if c.Email == "" && email != "" && ValidEmail(email) {
		c.Email = email
		changed = true
	}
	if c.Address == "" && address != "" {
		c.Address = address
		changed = true
	}
	if changed {
		c.UpdatedAt = time.Now()
		c.IncrementVersion()
	}
}

// HasBrainsAccount returns true if the customer is linked to a Brains account
func (c *Customer) HasBrainsAccount() bool {
	return c.BrainsAccountCode != nil && *c.BrainsAccountCode != ""
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether the value looks like an email address. The
// checkout dialog validates loosely: it only has to catch obvious typos.
func ValidEmail(email string) bool {
	return len(email) <= 200 && emailPattern.MatchString(email)
}
