package convert

import (
	"encoding"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stride/pkg/i18n"
)

var trueValues = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true,
}

// convertBool never fails: anything outside trueValues is false.
func convertBool(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	b := trueValues[strings.ToLower(strings.TrimSpace(input))]
	return reflect.ValueOf(b).Convert(target).Interface(), nil
}

func convertString(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	return reflect.ValueOf(input).Convert(target).Interface(), nil
}

func convertInt(input string, target reflect.Type, f *i18n.LocaleFormat) (any, error) {
	norm, percent := f.NormalizeNumber(input)
	n, err := strconv.ParseInt(norm, 10, 64)
	if err != nil || percent {
		fl, ferr := strconv.ParseFloat(norm, 64)
		if ferr != nil {
			return nil, newError(KeyInvalidNumber, input)
		}
		if percent {
			fl /= 100
		}
		if fl != math.Trunc(fl) {
			return nil, newError(KeyDecimalValue, input)
		}
		if fl < math.MinInt64 || fl >= math.MaxInt64 {
			return nil, outOfRange(input, target)
		}
		n = int64(fl)
	}

	if reflect.Zero(target).OverflowInt(n) {
		return nil, outOfRange(input, target)
	}
	v := reflect.New(target).Elem()
	v.SetInt(n)
	return v.Interface(), nil
}

func convertUint(input string, target reflect.Type, f *i18n.LocaleFormat) (any, error) {
	norm, _ := f.NormalizeNumber(input)
	if strings.HasPrefix(norm, "-") {
		if _, err := strconv.ParseFloat(norm, 64); err != nil {
			return nil, newError(KeyInvalidNumber, input)
		}
		return nil, outOfRange(input, target)
	}
	n, err := strconv.ParseUint(norm, 10, 64)
	if err != nil {
		fl, ferr := strconv.ParseFloat(norm, 64)
		if ferr != nil {
			return nil, newError(KeyInvalidNumber, input)
		}
		if fl != math.Trunc(fl) {
			return nil, newError(KeyDecimalValue, input)
		}
		return nil, outOfRange(input, target)
	}

	if reflect.Zero(target).OverflowUint(n) {
		return nil, outOfRange(input, target)
	}
	v := reflect.New(target).Elem()
	v.SetUint(n)
	return v.Interface(), nil
}

func convertFloat(input string, target reflect.Type, f *i18n.LocaleFormat) (any, error) {
	fl, err := f.ParseNumber(input)
	if err != nil || math.IsNaN(fl) || math.IsInf(fl, 0) {
		return nil, newError(KeyInvalidNumber, input)
	}
	if reflect.Zero(target).OverflowFloat(fl) {
		return nil, outOfRange(input, target)
	}
	v := reflect.New(target).Elem()
	v.SetFloat(fl)
	return v.Interface(), nil
}

func outOfRange(input string, target reflect.Type) *Error {
	var lo, hi any
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := target.Bits()
		lo, hi = int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		lo, hi = uint64(0), uint64(math.MaxUint64)>>(64-target.Bits())
	case reflect.Float32:
		lo, hi = -math.MaxFloat32, math.MaxFloat32
	default:
		lo, hi = -math.MaxFloat64, math.MaxFloat64
	}
	return newError(KeyOutOfRange, input, "min", lo, "max", hi)
}

// isoLayouts are tried after the locale layouts.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// convertTime parses in UTC unless the input carries a zone.
func convertTime(input string, target reflect.Type, f *i18n.LocaleFormat) (any, error) {
	s := strings.Join(strings.Fields(input), " ")
	for _, layouts := range [][]string{f.DateLayouts(), isoLayouts} {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return reflect.ValueOf(t).Convert(target).Interface(), nil
			}
		}
	}
	return nil, newError(KeyInvalidDate, input)
}

// convertDuration accepts Go duration strings and plain seconds.
func convertDuration(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	s := strings.TrimSpace(input)
	d, err := time.ParseDuration(s)
	if err != nil {
		secs, serr := strconv.ParseInt(s, 10, 64)
		if serr != nil {
			return nil, newError(KeyInvalidDuration, input)
		}
		d = time.Duration(secs) * time.Second
	}
	return reflect.ValueOf(d).Convert(target).Interface(), nil
}

func convertUUID(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return nil, newError(KeyInvalidUUID, input)
	}
	return reflect.ValueOf(id).Convert(target).Interface(), nil
}

func convertEnum(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	values := reflect.Zero(target).Interface().(Enumerated).EnumValues()
	s := strings.TrimSpace(input)
	for i, name := range values {
		if !strings.EqualFold(name, s) {
			continue
		}
		v := reflect.New(target).Elem()
		if target.Kind() == reflect.String {
			v.SetString(name)
		} else {
			v.SetInt(int64(i))
		}
		return v.Interface(), nil
	}
	return nil, newError(KeyNotEnumerated, input)
}

func convertText(input string, target reflect.Type, _ *i18n.LocaleFormat) (any, error) {
	ptr := reflect.New(target)
	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(input)); err != nil {
		return nil, newError(KeyInvalidText, input)
	}
	return ptr.Elem().Interface(), nil
}
