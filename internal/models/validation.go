package models

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = NewValidator()

// NewValidator returns a validator that understands decimal.Decimal fields and the
// decimal=<digits>:<places> tag. Field errors are reported under their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(decimalString, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("decimal", validateDecimal); err != nil {
		panic(fmt.Sprintf("register decimal validation: %v", err))
	}
	return v
}

// FitsPrecision reports whether d can be stored in a column with the given total
// digits and fractional digits without rounding.
func FitsPrecision(d decimal.Decimal, digits, places int) bool {
	if !d.Equal(d.Truncate(int32(places))) {
		return false
	}
	return d.Abs().LessThan(decimal.New(1, int32(digits-places)))
}

func decimalString(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateDecimal(fl validator.FieldLevel) bool {
	digits, places, err := parseDecimalParam(fl.Param())
	if err != nil {
		panic(err)
	}
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return FitsPrecision(d, digits, places)
}

func parseDecimalParam(param string) (int, int, error) {
	digitsStr, placesStr, ok := strings.Cut(param, ":")
	if !ok {
		return 0, 0, fmt.Errorf("decimal tag param %q must be <digits>:<places>", param)
	}
	digits, err := strconv.Atoi(digitsStr)
	if err != nil {
		return 0, 0, fmt.Errorf("decimal tag digits %q: %w", digitsStr, err)
	}
	places, err := strconv.Atoi(placesStr)
	if err != nil {
		return 0, 0, fmt.Errorf("decimal tag places %q: %w", placesStr, err)
	}
	if places < 0 || digits < places {
		return 0, 0, fmt.Errorf("decimal tag param %q out of range", param)
	}
	return digits, places, nil
}
