package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `validate:"required"`
	Value int    `validate:"min=1,max=10"`
	Bio   string `validate:"max=5"`
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(&sample{Name: "ok", Value: 5}))
}

func TestStructCollectsEveryField(t *testing.T) {
	err := Struct(&sample{Value: 11, Bio: "too long"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 3)

	assert.Equal(t, "Name", verr.Fields[0].Field)
	assert.Equal(t, "required", verr.Fields[0].Tag)
	assert.Equal(t, "name is required", verr.Fields[0].Message)
	assert.Equal(t, "value must be at most 10", verr.Fields[1].Message)
	assert.Equal(t, "bio must be at most 5", verr.Fields[2].Message)
	assert.Contains(t, err.Error(), "; ")
}

func TestIsValidationOnOtherErrors(t *testing.T) {
	assert.False(t, IsValidation(errors.New("boom")))
	assert.False(t, IsValidation(nil))
}

func TestStructMaxBytesCountsEncodedLength(t *testing.T) {
	type secret struct {
		Password string `validate:"max=72,maxbytes=72"`
	}

	// 40 three-byte runes: within the rune limit, over the byte limit.
	long := ""
	for i := 0; i < 40; i++ {
		long += "密"
	}
	err := Struct(secret{Password: long})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "maxbytes", verr.Fields[0].Tag)
	assert.Equal(t, "password must be at most 72 bytes", verr.Fields[0].Message)

	assert.NoError(t, Struct(secret{Password: long[:72]}))
}
