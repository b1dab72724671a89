package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"bare sentinel", ErrModelNotReady, KindModelNotReady},
		{"wrapped once", fmt.Errorf("%w: field State", ErrMalformedRecord), KindMalformedRecord},
		{"wrapped twice", fmt.Errorf("train: %w", fmt.Errorf("%w: class High has 1 example", ErrInsufficientData)), KindInsufficientData},
		{"unrelated", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
