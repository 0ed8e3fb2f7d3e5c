package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  NewAppValidationError("unknown aggregate"),
			want: "[VALIDATION] unknown aggregate",
		},
		{
			name: "with context and cause",
			err:  NewSourceNotFoundError("data/gap.xlsx", os.ErrNotExist),
			want: "[SOURCE_NOT_FOUND] workbook not found path=data/gap.xlsx: file does not exist",
		},
		{
			name: "sheet context",
			err:  NewSchemaMismatchError("2007", "missing column \"pop\""),
			want: "[SCHEMA_MISMATCH] missing column \"pop\" sheet=2007",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Is(t *testing.T) {
	err := fmt.Errorf("load: %w", NewSchemaMismatchError("2002", "no header row"))

	assert.True(t, stderrors.Is(err, ErrSchemaMismatch))
	assert.False(t, stderrors.Is(err, ErrSourceNotFound))
	assert.Equal(t, ErrTypeSchemaMismatch, TypeOf(err))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewUnreadableFormatError("notes.txt", os.ErrInvalid)
	assert.True(t, stderrors.Is(err, os.ErrInvalid))

	var appErr *AppError
	require.True(t, stderrors.As(fmt.Errorf("wrap: %w", err), &appErr))
	assert.Equal(t, "notes.txt", appErr.Context["path"])
}

func TestAppError_Fatal(t *testing.T) {
	assert.False(t, NewLookupMissError([]string{"Atlantis"}).Fatal())
	assert.True(t, NewSchemaMismatchError("x", "y").Fatal())
	assert.True(t, NewStorageError("write", nil).Fatal())
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "lookup miss", err: NewLookupMissError([]string{"Atlantis"}), want: false},
		{name: "wrapped lookup miss", err: fmt.Errorf("enrich: %w", NewLookupMissError([]string{"Atlantis"})), want: false},
		{name: "schema mismatch", err: NewSchemaMismatchError("1952", "missing column pop"), want: true},
		{name: "foreign error", err: io.ErrUnexpectedEOF, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestNewLookupMissError(t *testing.T) {
	err := NewLookupMissError([]string{"Atlantis", "Wakanda"})
	assert.Equal(t, ErrTypeLookupMiss, err.Type)
	assert.Equal(t, "Atlantis; Wakanda", err.Context["entities"])
	assert.Contains(t, err.Error(), "2 entities without category")
}
