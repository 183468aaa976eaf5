package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCommand struct {
	fail bool
}

func (c testCommand) Validate() error {
	if c.fail {
		return errors.New("bad command")
	}
	return nil
}

func TestCommandBus(t *testing.T) {
	t.Run("dispatches by concrete type", func(t *testing.T) {
		b := NewCommandBus()
		var handled bool
		require.NoError(t, b.Register(testCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			handled = true
			return nil
		})))

		require.NoError(t, b.Send(context.Background(), testCommand{}))
		assert.True(t, handled)
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		b := NewCommandBus()
		noop := CommandHandlerFunc(func(ctx context.Context, cmd Command) error { return nil })
		require.NoError(t, b.Register(testCommand{}, noop))
		require.Error(t, b.Register(testCommand{}, noop))
	})

	t.Run("validation runs before the handler", func(t *testing.T) {
		b := NewCommandBus()
		var handled bool
		require.NoError(t, b.Register(testCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			handled = true
			return nil
		})))

		err := b.Send(context.Background(), testCommand{fail: true})
		require.Error(t, err)
		assert.False(t, handled)
	})

	t.Run("unregistered type is an error", func(t *testing.T) {
		b := NewCommandBus()
		require.Error(t, b.Send(context.Background(), testCommand{}))
	})
}
