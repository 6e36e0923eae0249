package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

const defaultCountry = "India"

// Address is a postal address persisted as a JSON document on orders.
type Address struct {
	FullName     string  `json:"full_name" validate:"required,max=120"`
	Phone        string  `json:"phone" validate:"required,max=20"`
	AddressLine1 string  `json:"address_line_1" validate:"required,max=200"`
	AddressLine2 *string `json:"address_line_2,omitempty" validate:"omitempty,max=200"`
	City         string  `json:"city" validate:"required,max=80"`
	State        string  `json:"state" validate:"required,max=80"`
	PostalCode   string  `json:"postal_code" validate:"required,max=12"`
	Country      string  `json:"country,omitempty" validate:"omitempty,max=80"`
}

// Normalize trims every field and applies the default country.
func (a Address) Normalize() Address {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = defaultCountry
	}
	if a.AddressLine2 != nil {
		line2 := strings.TrimSpace(*a.AddressLine2)
		if line2 == "" {
			a.AddressLine2 = nil
		} else {
			a.AddressLine2 = &line2
		}
	}
	return a
}

// Value marshals Address into its JSON column form.
func (a Address) Value() (driver.Value, error) {
	if strings.TrimSpace(a.AddressLine1) == "" {
		return nil, fmt.Errorf("address: missing address_line_1")
	}
	if strings.TrimSpace(a.City) == "" {
		return nil, fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return nil, fmt.Errorf("address: missing postal_code")
	}
	payload, err := json.Marshal(a.Normalize())
	if err != nil {
		return nil, fmt.Errorf("address: marshal %w", err)
	}
	return string(payload), nil
}

// Scan decodes the JSON column form.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	var decoded Address
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return fmt.Errorf("address: decode %w", err)
	}
	*a = decoded
	return nil
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
