package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"domain error", &Error{Code: ENOTFOUND, Message: "gone"}, ENOTFOUND},
		{"wrapped domain error", WrapError(&Error{Code: EPAYMENT}, EUNAVAILABLE, "op", "outer"), EUNAVAILABLE},
		{"plain error", errors.New("boom"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessage_HidesInternalDetails(t *testing.T) {
	internal := Internal(errors.New("pq: connection reset"), "op", "query failed")
	assert.NotContains(t, ErrorMessage(internal), "connection reset")

	upstream := &Error{Code: EUPSTREAM, Message: "Book 42 not found"}
	assert.Equal(t, "Book 42 not found", ErrorMessage(upstream), "application messages surface verbatim")
}

func TestError_UnwrapSupportsErrorsIs(t *testing.T) {
	base := errors.New("root cause")
	wrapped := WrapError(base, EUNAVAILABLE, "gateway.get /api/books", "backend unreachable")

	assert.ErrorIs(t, wrapped, base)
	assert.True(t, IsCode(wrapped, EUNAVAILABLE))
	assert.False(t, IsCode(wrapped, EINVALID))
}

func TestError_ErrorStringIncludesOp(t *testing.T) {
	err := Errorf(EINVALID, "cart.add", "bookId must be positive")
	assert.Contains(t, err.Error(), "cart.add")
	assert.Contains(t, err.Error(), "bookId must be positive")
}
