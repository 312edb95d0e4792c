package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Email string  `json:"email" validate:"required,email"`
	Score float64 `json:"score" validate:"gte=0,lte=100"`
	Kind  string  `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestStruct(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(form{Email: "a@b.co", Score: 50}))

	err := v.Struct(form{Score: 150, Kind: "c"})
	require.Error(t, err)
	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "is required", verrs["email"])
	assert.Equal(t, "must be less than or equal to 100", verrs["score"])
	assert.Equal(t, "must be one of [a b]", verrs["kind"])
}
