package shared

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type practiceBody struct {
	Accuracy *int `json:"accuracy" validate:"required"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{"valid json", `{"accuracy": 90}`, false, ""},
		{"invalid json", `{"accuracy": 90,}`, true, "invalid character"},
		{"unknown field", `{"accuracy": 90, "score": 1}`, true, "unknown field"},
		{"empty body", "", true, "EOF"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.requestBody))

			var body practiceBody
			err := DecodeJSON(req, &body)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, body.Accuracy)
			assert.Equal(t, 90, *body.Accuracy)
		})
	}
}

func TestDecodeOptionalJSON(t *testing.T) {
	var body practiceBody

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	require.NoError(t, DecodeOptionalJSON(req, &body))
	assert.Nil(t, body.Accuracy)

	req = httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(""))
	require.NoError(t, DecodeOptionalJSON(req, &body))

	req = httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString("{"))
	assert.Error(t, DecodeOptionalJSON(req, &body))
}

type selfValidating struct{ ok bool }

var errSelf = errors.New("self validation failed")

func (s selfValidating) Validate() error {
	if !s.ok {
		return errSelf
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	zero := 0

	assert.NoError(t, ValidateRequest(practiceBody{Accuracy: &zero}))

	err := ValidateRequest(practiceBody{})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "required", verrs[0].Tag())

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.ErrorIs(t, ValidateRequest(selfValidating{}), errSelf)
}
