package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"LeadingZero", "0712345678", "254712345678"},
		{"BareSubscriber", "712345678", "254712345678"},
		{"SafaricomOneXX", "110345678", "254110345678"},
		{"AlreadyPrefixed", "254712345678", "254712345678"},
		{"WithSeparators", "0712-345 678", "254712345678"},
		{"PlusPrefix", "+254712345678", "254712345678"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizePhone_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"TooShort", "07123"},
		{"TooLong", "07123456789012"},
		{"Empty", ""},
		{"Letters", "notaphone"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizePhone(tc.input)
			assert.ErrorIs(t, err, ErrInvalidPhone)
		})
	}
}
