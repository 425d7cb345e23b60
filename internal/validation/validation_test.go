package validation

import (
	"strings"
	"testing"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type patchRequest struct {
	Title    *string `json:"title" validate:"omitnil,min=1,max=200"`
	Status   *string `json:"status,omitempty" validate:"omitnil,oneof=pending in_progress completed"`
	Password *string `json:"password" validate:"omitnil,min=6,maxbytes=72"`
}

func TestStruct(t *testing.T) {
	empty := ""
	bogus := "bogus"
	ok := "pending"
	wide := strings.Repeat("é", 40)

	tests := []struct {
		name       string
		input      interface{}
		wantFields map[string]string
	}{
		{
			name:  "valid register",
			input: registerRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"},
		},
		{
			name:  "missing everything",
			input: registerRequest{},
			wantFields: map[string]string{
				"username": "Missing data for required field.",
				"email":    "Missing data for required field.",
				"password": "Missing data for required field.",
			},
		},
		{
			name:  "short password and bad email",
			input: registerRequest{Username: "alice", Email: "not-an-email", Password: "12345"},
			wantFields: map[string]string{
				"email":    "Not a valid email address.",
				"password": "Must be at least 6 characters long.",
			},
		},
		{
			name:  "password at the byte limit",
			input: registerRequest{Username: "alice", Email: "alice@example.com", Password: strings.Repeat("a", 72)},
		},
		{
			name:  "multi-byte password over the byte limit",
			input: registerRequest{Username: "alice", Email: "alice@example.com", Password: wide},
			wantFields: map[string]string{
				"password": "Must be at most 72 bytes long.",
			},
		},
		{
			name:  "multi-byte pointer password over the byte limit",
			input: patchRequest{Password: &wide},
			wantFields: map[string]string{
				"password": "Must be at most 72 bytes long.",
			},
		},
		{
			name:  "nil pointers are skipped",
			input: patchRequest{},
		},
		{
			name:  "valid pointers",
			input: patchRequest{Status: &ok},
		},
		{
			name:  "empty title pointer is validated",
			input: patchRequest{Title: &empty},
			wantFields: map[string]string{
				"title": "Must be at least 1 characters long.",
			},
		},
		{
			name:  "status outside enum",
			input: patchRequest{Status: &bogus},
			wantFields: map[string]string{
				"status": "Must be one of: pending, in_progress, completed.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Len(t, verr.Fields, len(tt.wantFields))
			for field, msg := range tt.wantFields {
				assert.Equal(t, []string{msg}, verr.Fields[field], "field %s", field)
			}
		})
	}
}

func TestStruct_NotAStruct(t *testing.T) {
	err := Struct("just a string")
	require.Error(t, err)

	var verr *domain.ValidationError
	assert.NotErrorAs(t, err, &verr)
}
