package types

import "strings"

// ShippingAddress is stored on orders as a JSON snapshot so later edits to
// a user's profile never rewrite history.
type ShippingAddress struct {
	RecipientName string  `json:"recipient_name"`
	Phone         string  `json:"phone"`
	Line1         string  `json:"line1"`
	Line2         *string `json:"line2,omitempty"`
	Subdistrict   string  `json:"subdistrict"`
	District      string  `json:"district"`
	Province      string  `json:"province"`
	PostalCode    string  `json:"postal_code"`
	Note          *string `json:"note,omitempty"`
}

// Complete reports whether the fields required for a delivery are present.
func (a ShippingAddress) Complete() bool {
	for _, field := range []string{a.RecipientName, a.Phone, a.Line1, a.Province, a.PostalCode} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}

// JSONMap is a free-form JSON object column.
type JSONMap map[string]any
