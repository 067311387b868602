package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=0,lte=150"`
}

type testOrderRequest struct {
	PaymentMethod string          `json:"payment_method" validate:"required,payment_method"`
	Status        string          `json:"status" validate:"omitempty,order_status"`
	Price         decimal.Decimal `json:"price" validate:"gt=0"`
}

func jsonRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/test", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeName bool, includeEmail bool) bool {
			reqMap := map[string]interface{}{"age": 25}
			if includeName {
				reqMap["name"] = "Maria Souza"
			}
			if includeEmail {
				reqMap["email"] = "maria@example.com"
			}

			var dst testRequest
			err := DecodeAndValidate(jsonRequest(t, reqMap), &dst)

			if includeName && includeEmail {
				return err == nil
			}
			return err != nil && len(FormatValidationErrors(err)) > 0
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_AgeRangeValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("age outside valid range is rejected", prop.ForAll(
		func(age int) bool {
			var dst testRequest
			err := DecodeAndValidate(jsonRequest(t, map[string]interface{}{
				"name":  "Maria Souza",
				"email": "maria@example.com",
				"age":   age,
			}), &dst)

			if age >= 0 && age <= 150 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(-100, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_UsesJSONFieldNames(t *testing.T) {
	var dst testRequest
	err := DecodeAndValidate(jsonRequest(t, map[string]interface{}{
		"name":  "Maria Souza",
		"email": "not-an-email",
	}), &dst)
	require.Error(t, err)

	formatted := FormatValidationErrors(err)
	require.Len(t, formatted, 1)
	assert.Equal(t, "email", formatted[0].Field)
	assert.NotEmpty(t, formatted[0].Message)
}

func TestDecodeAndValidate_MalformedBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")

	var dst testRequest
	err := DecodeAndValidate(req, &dst)
	assert.True(t, errors.Is(err, ErrMalformedBody))
	assert.Empty(t, FormatValidationErrors(err))
}

func TestProperty_PaymentMethodTag(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("only known payment methods pass", prop.ForAll(
		func(method string) bool {
			var dst testOrderRequest
			err := DecodeAndValidate(jsonRequest(t, map[string]interface{}{
				"payment_method": method,
				"price":          "10.00",
			}), &dst)

			known := method == "CASH" || method == "CREDIT_CARD" || method == "DEBIT_CARD" || method == "PIX"
			return (err == nil) == known
		},
		gen.OneGenOf(
			gen.OneConstOf("CASH", "CREDIT_CARD", "DEBIT_CARD", "PIX"),
			gen.AlphaString(),
		),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidation_OrderStatusAndPrice(t *testing.T) {
	cases := []struct {
		name    string
		body    map[string]interface{}
		wantErr bool
	}{
		{"valid", map[string]interface{}{"payment_method": "PIX", "status": "PREPARING", "price": "12.50"}, false},
		{"unknown status", map[string]interface{}{"payment_method": "PIX", "status": "LOST", "price": "12.50"}, true},
		{"zero price", map[string]interface{}{"payment_method": "PIX", "price": "0"}, true},
		{"negative price", map[string]interface{}{"payment_method": "PIX", "price": "-3"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var dst testOrderRequest
			err := DecodeAndValidate(jsonRequest(t, tc.body), &dst)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidationMiddleware_RequiresJSONBodies(t *testing.T) {
	handler := ValidationMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name        string
		method      string
		contentType string
		body        string
		want        int
	}{
		{"json post", "POST", "application/json; charset=utf-8", `{}`, http.StatusNoContent},
		{"form post", "POST", "application/x-www-form-urlencoded", `a=b`, http.StatusUnsupportedMediaType},
		{"plain put", "PUT", "text/plain", `hello`, http.StatusUnsupportedMediaType},
		{"empty patch", "PATCH", "", ``, http.StatusNoContent},
		{"get ignores body type", "GET", "text/plain", `hello`, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/x", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
