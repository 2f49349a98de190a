// Package owner holds the parties that accounts belong to: clients (people) and
// merchants (businesses).
package owner

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrInvalidDetails = errors.New("invalid owner details")

const (
	minNameLength = 3
	maxNameLength = 100
)

// Client is a person holding accounts
type Client struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	DocumentNumber string    `json:"document_number"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Merchant is a business holding accounts
type Merchant struct {
	ID                   int64     `json:"id"`
	BusinessName         string    `json:"business_name"`
	TradingName          string    `json:"trading_name,omitempty"`
	Email                string    `json:"email"`
	NIF                  string    `json:"nif"`
	Phone                string    `json:"phone"`
	Address              string    `json:"address,omitempty"`
	MerchantCategoryCode string    `json:"merchant_category_code,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ClientDetails are the caller-supplied client fields
type ClientDetails struct {
	Name           string
	Email          string
	DocumentNumber string
	Phone          string
	Address        string
}

// MerchantDetails are the caller-supplied merchant fields
type MerchantDetails struct {
	BusinessName         string
	TradingName          string
	Email                string
	NIF                  string
	Phone                string
	Address              string
	MerchantCategoryCode string
}

func NewClient(d ClientDetails) (*Client, error) {
	d = d.normalized()
	if err := d.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Client{
		Name:           d.Name,
		Email:          d.Email,
		DocumentNumber: d.DocumentNumber,
		Phone:          d.Phone,
		Address:        d.Address,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Apply replaces the client's details. The id and creation time are kept.
func (c *Client) Apply(d ClientDetails) error {
	d = d.normalized()
	if err := d.validate(); err != nil {
		return err
	}

	c.Name = d.Name
	c.Email = d.Email
	c.DocumentNumber = d.DocumentNumber
	c.Phone = d.Phone
	c.Address = d.Address
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func NewMerchant(d MerchantDetails) (*Merchant, error) {
	d = d.normalized()
	if err := d.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Merchant{
		BusinessName:         d.BusinessName,
		TradingName:          d.TradingName,
		Email:                d.Email,
		NIF:                  d.NIF,
		Phone:                d.Phone,
		Address:              d.Address,
		MerchantCategoryCode: d.MerchantCategoryCode,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// Emails are compared case-insensitively, so they are stored lower-cased
func (d ClientDetails) normalized() ClientDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.DocumentNumber = strings.TrimSpace(d.DocumentNumber)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	return d
}

func (d ClientDetails) validate() error {
	if err := checkName("name", d.Name); err != nil {
		return err
	}
	return checkRequired(map[string]string{
		"email":           d.Email,
		"document_number": d.DocumentNumber,
		"phone":           d.Phone,
	})
}

func (d MerchantDetails) normalized() MerchantDetails {
	d.BusinessName = strings.TrimSpace(d.BusinessName)
	d.TradingName = strings.TrimSpace(d.TradingName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.NIF = strings.TrimSpace(d.NIF)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.MerchantCategoryCode = strings.TrimSpace(d.MerchantCategoryCode)
	return d
}

func (d MerchantDetails) validate() error {
	if err := checkName("business_name", d.BusinessName); err != nil {
		return err
	}
	return checkRequired(map[string]string{
		"email": d.Email,
		"nif":   d.NIF,
		"phone": d.Phone,
	})
}

func checkName(field, name string) error {
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return fmt.Errorf("%w: %s must be between %d and %d characters", ErrInvalidDetails, field, minNameLength, maxNameLength)
	}
	return nil
}

func checkRequired(fields map[string]string) error {
	for _, field := range []string{"email", "document_number", "nif", "phone"} {
		if value, ok := fields[field]; ok && value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidDetails, field)
		}
	}
	if email, ok := fields["email"]; ok && !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is not valid", ErrInvalidDetails)
	}
	return nil
}
