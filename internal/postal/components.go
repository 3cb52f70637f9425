package postal

import (
	"errors"
	"strings"
)

// ErrLibpostalUnavailable is returned when the binary was built without libpostal
var ErrLibpostalUnavailable = errors.New("libpostal support not compiled in (build with -tags libpostal)")

// Components holds libpostal's labelled output for one address
type Components struct {
	HouseNumber string `json:"house_number,omitempty"`
	Road        string `json:"road,omitempty"`
	Unit        string `json:"unit,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
}

func (c *Components) set(label, value string) {
	switch label {
	case "house_number":
		c.HouseNumber = value
	case "road":
		c.Road = value
	case "unit":
		c.Unit = value
	case "city":
		c.City = value
	case "state":
		c.State = strings.ToUpper(value)
	case "postcode":
		c.Postcode = value
	case "country":
		c.Country = value
	}
}

// Street joins house number, road and unit the way Parse reports a street
func (c Components) Street() string {
	return strings.Join(strings.Fields(strings.Join([]string{c.HouseNumber, c.Road, c.Unit}, " ")), " ")
}
