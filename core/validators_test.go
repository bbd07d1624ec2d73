package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	SampleItem struct {
		Label string `json:"label" validate:"notblank"`
	}
	SampleEmbedded struct {
		Email string `json:"email" validate:"required,email"`
	}
	SamplePayload struct {
		SampleEmbedded
		Answer string     `json:"answer" validate:"yesno"`
		Items  []SampleItem `json:"items" validate:"dive"`
		Secret string     `json:"-" validate:"required"`
	}
)

func TestTranslateValidationErrors(t *testing.T) {
	validate, translator := NewValidator()

	tests := []struct {
		name    string
		payload SamplePayload
		want    []FieldError
	}{
		{
			name:    "valid",
			payload: SamplePayload{SampleEmbedded: SampleEmbedded{Email: "a@b.eg"}, Answer: "yes", Secret: "s"},
		},
		{
			name:    "empty yesno is allowed",
			payload: SamplePayload{SampleEmbedded: SampleEmbedded{Email: "a@b.eg"}, Secret: "s"},
		},
		{
			name: "every failure is listed",
			payload: SamplePayload{
				Answer: "maybe",
				Items:  []SampleItem{{Label: "ok"}, {Label: "   "}},
				Secret: "s",
			},
			want: []FieldError{
				{Field: "email", Error: "email is required"},
				{Field: "answer", Error: "answer must be one of: yes, no"},
				{Field: "items[1].label", Error: "label cannot be blank"},
			},
		},
		{
			name:    "untagged field keeps its Go name",
			payload: SamplePayload{SampleEmbedded: SampleEmbedded{Email: "a@b.eg"}},
			want:    []FieldError{{Field: "Secret", Error: "Secret is required"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.payload)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			vErr, ok := TranslateValidationErrors(err, translator).(*ValidationError)
			require.True(t, ok)
			assert.Equal(t, tt.want, vErr.Fields)
		})
	}
}

func TestTranslateValidationErrors_passthrough(t *testing.T) {
	_, translator := NewValidator()
	err := errors.New("boom")
	assert.Equal(t, err, TranslateValidationErrors(err, translator))
}
