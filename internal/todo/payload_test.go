// ABOUTME: Tests for create and update payload decoding
// ABOUTME: Covers accepted shapes, ignored fields, and validation failures

package todo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCreate(t *testing.T) {
	in, err := DecodeCreate(strings.NewReader(`{"title": "Buy milk"}`))
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", in.Title)
}

func TestDecodeCreate_IgnoresServerOwnedFields(t *testing.T) {
	body := `{"title": "a", "id": "forged", "completed": true, "createdAt": "1999", "extra": [1, 2]}`
	in, err := DecodeCreate(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, CreateInput{Title: "a"}, in)
}

func TestDecodeCreate_EmptyObject(t *testing.T) {
	in, err := DecodeCreate(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "", in.Title)
}

func TestDecodeUpdate(t *testing.T) {
	in, err := DecodeUpdate(strings.NewReader(`{"title": "x", "completed": true}`))
	require.NoError(t, err)
	require.NotNil(t, in.Title)
	require.NotNil(t, in.Completed)
	assert.Equal(t, "x", *in.Title)
	assert.True(t, *in.Completed)
}

func TestDecodeUpdate_AbsentAndNullLeaveFieldsUnset(t *testing.T) {
	in, err := DecodeUpdate(strings.NewReader(`{"title": null}`))
	require.NoError(t, err)
	assert.Nil(t, in.Title)
	assert.Nil(t, in.Completed)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"malformed", `{"title": `},
		{"array", `[]`},
		{"null", `null`},
		{"string", `"title"`},
		{"title number", `{"title": 42}`},
		{"completed string", `{"completed": "yes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUpdate(strings.NewReader(tt.body))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestDecodeCreate_Invalid(t *testing.T) {
	_, err := DecodeCreate(strings.NewReader(`{"title": false}`))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = DecodeCreate(strings.NewReader(``))
	assert.ErrorIs(t, err, ErrValidation)
}
