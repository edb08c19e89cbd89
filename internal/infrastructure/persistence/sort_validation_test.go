package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := map[string]string{
		"asc":   "ASC",
		" ASC ": "ASC",
		"desc":  "DESC",
		"":      "DESC",
		"up":    "DESC",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ValidateSortOrder(in))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "code", ValidateSortField("code", ProductSortFields, "created_at"))
	assert.Equal(t, "days_idle", ValidateSortField(" days_idle ", StagnantReturnSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", OrderSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("client_secret", OrderSortFields, "created_at"))
}

func TestSQLInjectionPrevention(t *testing.T) {
	payloads := []string{
		"code; DROP TABLE stock_records;--",
		"code' OR '1'='1",
		"code UNION SELECT * FROM employees",
		"code, (SELECT name FROM employees)",
		"CASE WHEN 1=1 THEN code ELSE name END",
		"code\n; DROP TABLE orders",
	}

	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			assert.Equal(t, "created_at", ValidateSortField(payload, ProductSortFields, "created_at"))
			assert.Equal(t, "DESC", ValidateSortOrder(payload))
		})
	}
}
