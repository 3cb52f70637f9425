//go:build !libpostal

package postal

// LibpostalParse is unavailable unless built with -tags libpostal
func LibpostalParse(raw string) (Components, error) {
	return Components{}, ErrLibpostalUnavailable
}
