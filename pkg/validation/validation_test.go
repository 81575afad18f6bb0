package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/pkg/cerr"
)

type reviewRequest struct {
	ID       string `json:"id" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Score    *int   `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	Note     string `json:"note" validate:"max=5"`
}

func TestStruct(t *testing.T) {
	score := func(v int) *int { return &v }
	tests := []struct {
		name    string
		in      reviewRequest
		wantMsg string
	}{
		{"ok", reviewRequest{ID: "t", Decision: "approved", Score: score(92)}, ""},
		{"missing id", reviewRequest{Decision: "approved"}, "id is required"},
		{"bad decision", reviewRequest{ID: "t", Decision: "maybe"}, "decision must be one of [approved rejected]"},
		{"score too high", reviewRequest{ID: "t", Decision: "rejected", Score: score(101)}, "score must be at most 100"},
		{"score negative", reviewRequest{ID: "t", Decision: "rejected", Score: score(-1)}, "score must be at least 0"},
		{"note too long", reviewRequest{ID: "t", Decision: "rejected", Note: "abcdef"}, "note must be at most 5 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
			assert.Equal(t, tt.wantMsg, cerr.Reason(err))
		})
	}
}
