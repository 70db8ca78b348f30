package employee

import (
	"context"
	"testing"

	"github.com/klokku/worktime/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceImpl_Current(t *testing.T) {
	service := NewService(NewStubRepository())
	ctx := user.WithUser(context.Background(), user.User{Email: "jan@example.com"})

	t.Run("lookup does not create the employee", func(t *testing.T) {
		_, err := service.Lookup(ctx)
		assert.ErrorIs(t, err, ErrEmployeeNotFound)
	})

	t.Run("provisions the employee once", func(t *testing.T) {
		first, err := service.Current(ctx)
		require.NoError(t, err)
		second, err := service.Current(ctx)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, "jan", first.FullName)
		found, err := service.Lookup(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.Id, found.Id)
	})

	t.Run("requires a caller", func(t *testing.T) {
		_, err := service.Current(context.Background())
		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}
