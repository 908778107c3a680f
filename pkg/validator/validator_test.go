package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type couponRequest struct {
	Code   string  `json:"code" validate:"required,max=32"`
	Amount float64 `json:"amount" validate:"gte=0"`
	Kind   string  `json:"kind" validate:"omitempty,oneof=percentage flat"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(couponRequest{Code: "EASY10", Amount: 5, Kind: "flat"})
	assert.NoError(t, err)
}

func TestValidate_MissingRequired_UsesJSONName(t *testing.T) {
	err := Validate(couponRequest{Amount: 5})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["code"])
}

func TestValidate_Range(t *testing.T) {
	err := Validate(couponRequest{Code: "X", Amount: -1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be greater than or equal to 0", valErr.Fields()["amount"])
	assert.Contains(t, valErr.Error(), "field 'amount'")
}

func TestValidate_OneOf(t *testing.T) {
	err := Validate(couponRequest{Code: "X", Kind: "bogus"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be one of: percentage flat", valErr.Fields()["kind"])
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var dst couponRequest
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_Valid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"WELCOME","amount":3}`))
	var dst couponRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "WELCOME", dst.Code)
}
