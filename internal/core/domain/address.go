package domain

import (
	"fmt"
	"strings"
	"time"
)

type Address struct {
	ID         string
	UserID     string
	FirstName  string
	LastName   string
	Company    string
	Line1      string
	Line2      string
	City       string
	State      string
	Country    string
	PostalCode string
	Phone      string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a *Address) Normalize() error {
	if a.UserID == "" {
		return fmt.Errorf("%w: address owner is required", ErrInvalidInput)
	}
	for name, v := range map[string]string{
		"first name":  a.FirstName,
		"last name":   a.LastName,
		"line 1":      a.Line1,
		"city":        a.City,
		"postal code": a.PostalCode,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: address %s is required", ErrInvalidInput, name)
		}
	}
	country, err := NormalizeCountry(a.Country)
	if err != nil {
		return err
	}
	a.Country = country
	return nil
}
