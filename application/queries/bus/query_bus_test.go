package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testQuery struct {
	fail bool
}

func (q testQuery) Validate() error {
	if q.fail {
		return errors.New("bad query")
	}
	return nil
}

func TestQueryBus(t *testing.T) {
	t.Run("returns the handler's result", func(t *testing.T) {
		b := NewQueryBus()
		require.NoError(t, b.Register(testQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
			return 42, nil
		})))

		result, err := b.Ask(context.Background(), testQuery{})
		require.NoError(t, err)
		assert.Equal(t, 42, result)
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		b := NewQueryBus()
		noop := QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) { return nil, nil })
		require.NoError(t, b.Register(testQuery{}, noop))
		require.Error(t, b.Register(testQuery{}, noop))
	})

	t.Run("validation failure skips the handler", func(t *testing.T) {
		b := NewQueryBus()
		var handled bool
		require.NoError(t, b.Register(testQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
			handled = true
			return nil, nil
		})))

		_, err := b.Ask(context.Background(), testQuery{fail: true})
		require.Error(t, err)
		assert.False(t, handled)
	})

	t.Run("unregistered type is an error", func(t *testing.T) {
		b := NewQueryBus()
		_, err := b.Ask(context.Background(), testQuery{})
		require.Error(t, err)
	})
}
