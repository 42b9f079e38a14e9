package models

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	Phone             string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(200)"`
	Email             string          `gorm:"type:varchar(200)"`
	Address           string          `gorm:"type:text"`
	BrainsAccountCode *string         `gorm:"type:varchar(50);uniqueIndex"`
	Balance           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreditLimit       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Phone:             m.Phone,
		Name:              m.Name,
		Email:             m.Email,
		Address:           m.Address,
		BrainsAccountCode: m.BrainsAccountCode,
		Balance:           m.Balance,
		CreditLimit:       m.CreditLimit,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Phone = c.Phone
	m.Name = c.Name
	m.Email = c.Email
	m.Address = c.Address
	m.BrainsAccountCode = c.BrainsAccountCode
	m.Balance = c.Balance
	m.CreditLimit = c.CreditLimit
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
