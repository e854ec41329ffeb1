package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.publicMsg, meta.PublicMessage)
			assert.Equal(t, tt.retryable, meta.Retryable)
			assert.Equal(t, tt.detailsOK, meta.DetailsAllowed)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeDependency, cause, "load cart")

	assert.True(t, stdErrors.Is(err, cause))
	assert.Equal(t, "DEPENDENCY_ERROR: load cart", err.Error())
}

func TestIsCodeFindsWrappedError(t *testing.T) {
	inner := Newf(CodeValidation, "insufficient stock for %s", "SW-24P")
	outer := fmt.Errorf("place order: %w", inner)

	require.True(t, IsCode(outer, CodeValidation))
	assert.False(t, IsCode(outer, CodeConflict))
	assert.Equal(t, "insufficient stock for SW-24P", As(outer).Message())
}

func TestLogFieldsWalksChainWithoutPostgres(t *testing.T) {
	err := fmt.Errorf("reserve stock: %w", Wrap(CodeInternal, stdErrors.New("connection reset"), "decrement SW-24P"))
	fields := LogFields(err)

	assert.Equal(t, CodeInternal, fields["error_code"])
	assert.Len(t, fields["error_chain"], 3)
	assert.NotContains(t, fields, "pg_code")
}

func TestLogFieldsReadsPostgresConstraint(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "shop_orders_order_number_key", TableName: "shop_orders"}
	err := Wrap(CodeConflict, fmt.Errorf("insert order: %w", pgErr), "order number taken")
	fields := LogFields(err)

	assert.Equal(t, CodeConflict, fields["error_code"])
	assert.Equal(t, "23505", fields["pg_code"])
	assert.Equal(t, "shop_orders_order_number_key", fields["pg_constraint"])
	assert.Equal(t, "shop_orders", fields["pg_table"])
}
