package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Keells Super", SanitizeString("  Keells Super  ", 100))
	assert.Equal(t, "ab", SanitizeString("abcd", 2))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 100))
}

func TestValidateCollectsErrors(t *testing.T) {
	errs := Validate(
		Required("merchant", ""),
		PositiveAmount("amount", -5),
	)
	assert.Len(t, errs, 2)
	assert.Equal(t, "merchant", errs[0].Field)
	assert.Contains(t, errs.Error(), "merchant")
}

func TestValidatePasses(t *testing.T) {
	errs := Validate(
		Required("merchant", "Cargills"),
		MaxLength("merchant", "Cargills", MaxMerchantLength),
		PositiveAmount("amount", 4500),
	)
	assert.Empty(t, errs)
}
