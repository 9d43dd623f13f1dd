package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *AnalysisError
		expected string
	}{
		{
			name:     "with step",
			err:      New(CodeMissingValue, "load", "empty cell at row 4"),
			expected: "load [MISSING_VALUE]: empty cell at row 4",
		},
		{
			name:     "without step",
			err:      New(CodeInvalidConfig, "", "cluster k range inverted"),
			expected: "[INVALID_CONFIG]: cluster k range inverted",
		},
		{
			name:     "with cause",
			err:      Wrap(CodeInputMissing, "load", "open dataset", stderrors.New("no such file")),
			expected: "load [INPUT_MISSING]: open dataset: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestWrappingChain(t *testing.T) {
	cause := stderrors.New("matrix is singular")
	err := Wrap(CodeDegenerateMatrix, "factor", "invert correlation matrix", cause)

	wrapped := fmt.Errorf("run pipeline: %w", err)

	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeDegenerateMatrix, CodeOf(wrapped))

	// Matching by sentinel code through the chain.
	assert.ErrorIs(t, wrapped, New(CodeDegenerateMatrix, "", ""))
	assert.NotErrorIs(t, wrapped, New(CodeNoConvergence, "", ""))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(stderrors.New("plain")))
}
