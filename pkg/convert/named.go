package convert

import (
	"net/mail"
	"reflect"
	"strconv"
	"strings"

	"github.com/dmitrymomot/stride/pkg/i18n"
)

// convertEmail returns the bare address of a parsed RFC 5322 address.
func convertEmail(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(input))
	if err != nil || !strings.Contains(addr.Address, "@") {
		return nil, newError(KeyInvalidEmail, input)
	}
	return toString(addr.Address, target)
}

// convertCreditCard strips everything but digits and checks length and
// the Luhn checksum. The result is the digits only.
func convertCreditCard(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, input)
	if len(digits) < 12 || len(digits) > 19 || !luhn(digits) {
		return nil, newError(KeyInvalidCreditCard, input)
	}
	return toString(digits, target)
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// convertPercentage reads "45" and "45%" alike as 0.45.
func convertPercentage(input string, target reflect.Type, f *i18n.LocaleFormat) (any, error) {
	if target.Kind() != reflect.Float32 && target.Kind() != reflect.Float64 {
		return nil, newError(KeyInvalidNumber, input)
	}
	norm, _ := f.NormalizeNumber(input)
	fl, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return nil, newError(KeyInvalidNumber, input)
	}
	v := reflect.New(target).Elem()
	v.SetFloat(fl / 100)
	return v.Interface(), nil
}

func convertTrim(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	return toString(strings.TrimSpace(input), target)
}

func convertLower(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	return toString(strings.ToLower(input), target)
}

func convertUpper(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	return toString(strings.ToUpper(input), target)
}

func toString(s string, target reflect.Type) (any, error) {
	if target.Kind() != reflect.String {
		return nil, newError(KeyInvalidText, s)
	}
	return reflect.ValueOf(s).Convert(target).Interface(), nil
}
