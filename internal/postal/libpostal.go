//go:build libpostal

package postal

import (
	"strings"

	gopostal "github.com/openvenues/gopostal/parser"
)

// LibpostalParse labels address components with libpostal. It is used to
// compare against Parse and never feeds back into it.
func LibpostalParse(raw string) (Components, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Components{}, nil
	}

	var c Components
	for _, component := range gopostal.ParseAddress(raw) {
		c.set(component.Label, component.Value)
	}
	return c, nil
}
