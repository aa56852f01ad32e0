package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestTraced(t *testing.T) {
	t.Run("ReturnsResult", func(t *testing.T) {
		got, err := Traced(context.Background(), OpFetchAttestation, func(ctx context.Context) (int, error) {
			return 42, nil
		}, attribute.String("uid", "0x01"))
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})

	t.Run("ReturnsError", func(t *testing.T) {
		_, err := Traced(context.Background(), OpSubmitAttestation, func(ctx context.Context) (string, error) {
			return "", errors.New("reverted")
		})
		require.EqualError(t, err, "reverted")
	})

	t.Run("RepanicsAfterEndingSpan", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = Traced(context.Background(), OpWaitReceipt, func(ctx context.Context) (int, error) {
				panic("boom")
			})
		})
	})
}
