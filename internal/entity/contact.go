package entity

import (
	"strings"

	"github.com/joseph-ayodele/contacts-extractor/constants"
)

// Contact is one business-card record extracted from a single page.
// Unresolved fields hold constants.NotAvailable, never "".
type Contact struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Email       string `json:"email"`
	MobilePhone string `json:"mobile_phone"`
	DirectPhone string `json:"direct_phone"`
	HQPhone     string `json:"hq_phone"`
	Location    string `json:"location"`
}

// NewContact returns a Contact with every field set to the sentinel.
func NewContact() Contact {
	return Contact{
		Name:        constants.NotAvailable,
		Title:       constants.NotAvailable,
		Company:     constants.NotAvailable,
		Email:       constants.NotAvailable,
		MobilePhone: constants.NotAvailable,
		DirectPhone: constants.NotAvailable,
		HQPhone:     constants.NotAvailable,
		Location:    constants.NotAvailable,
	}
}

// HasName reports whether the contact carries a usable name.
func (c Contact) HasName() bool {
	name := strings.TrimSpace(c.Name)
	return name != "" && name != constants.NotAvailable
}

// Values returns the field values in constants.ContactHeaders order.
func (c Contact) Values() []string {
	return []string{
		c.Name,
		c.Title,
		c.Company,
		c.Email,
		c.MobilePhone,
		c.DirectPhone,
		c.HQPhone,
		c.Location,
	}
}

// ContactFromValues is the inverse of Values. Missing or blank values become the sentinel.
func ContactFromValues(vals []string) Contact {
	get := func(i int) string {
		if i >= len(vals) || strings.TrimSpace(vals[i]) == "" {
			return constants.NotAvailable
		}
		return vals[i]
	}
	return Contact{
		Name:        get(0),
		Title:       get(1),
		Company:     get(2),
		Email:       get(3),
		MobilePhone: get(4),
		DirectPhone: get(5),
		HQPhone:     get(6),
		Location:    get(7),
	}
}
