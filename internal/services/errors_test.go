package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(Conflict("insufficient funds")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", NotFound("x"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		kind Kind
	}{
		{"typed passes through", Forbidden("not yours"), KindForbidden},
		{"unique violation", &pq.Error{Code: "23505"}, KindConflict},
		{"wrapped unique violation", fmt.Errorf("insert email: %w", &pq.Error{Code: "23505"}), KindConflict},
		{"serialization failure on commit", fmt.Errorf("commit transaction: %w", &pq.Error{Code: "40001"}), KindConflict},
		{"deadlock", &pq.Error{Code: "40P01"}, KindConflict},
		{"foreign key", &pq.Error{Code: "23503"}, KindNotFound},
		{"other pq error", &pq.Error{Code: "XX000"}, KindInternal},
		{"cancelled", context.Canceled, KindInternal},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(storeError(tt.in)))
		})
	}
	assert.NoError(t, storeError(nil))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("driver down")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "driver down")
}
