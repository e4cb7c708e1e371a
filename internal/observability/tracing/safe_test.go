package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsContactDetails(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/customers/:id"),
		attribute.String("customer.email", "jane@example.com"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorKeepsFirstLine(t *testing.T) {
	err := SafeError(errors.New("insert rentals: boom\nDETAIL: Key (unit_id)=(1)"))
	assert.EqualError(t, err, "insert rentals: boom")

	long := SafeError(errors.New(strings.Repeat("x", 400)))
	assert.Len(t, long.Error(), 256)

	assert.Nil(t, SafeError(nil))
}
