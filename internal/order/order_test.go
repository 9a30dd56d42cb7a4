package order

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{6}$`)
	require.Equal(t, "ORD-100000", NewID(func(int) int { return 0 }))
	require.Equal(t, "ORD-999999", NewID(func(n int) int { return n - 1 }))
	for i := 0; i < 50; i++ {
		require.Regexp(t, pattern, NewID(nil))
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	seq := []int{5, 5, 7}
	repo := NewRepository()
	repo.Intn = func(int) int {
		v := seq[0]
		seq = seq[1:]
		return v
	}
	ctx := context.Background()

	first, err := repo.Create(ctx, Order{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "ORD-100005", first.ID)
	require.Equal(t, StatusCompleted, first.Status)

	second, err := repo.Create(ctx, Order{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "ORD-100007", second.ID)
}

func TestCreateGivesUp(t *testing.T) {
	repo := NewRepository()
	repo.Intn = func(int) int { return 1 }
	ctx := context.Background()
	_, err := repo.Create(ctx, Order{})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Order{})
	require.ErrorIs(t, err, ErrIDExhausted)
}

func TestListOrdering(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewRepository()
	repo.Now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	ctx := context.Background()
	a, _ := repo.Create(ctx, Order{UserID: "u1"})
	b, _ := repo.Create(ctx, Order{UserID: "u2"})
	c, _ := repo.Create(ctx, Order{UserID: "u1"})

	mine := repo.ListByUser(ctx, "u1")
	require.Len(t, mine, 2)
	require.Equal(t, c.ID, mine[0].ID)
	require.Equal(t, a.ID, mine[1].ID)

	all := repo.List(ctx)
	require.Len(t, all, 3)
	require.Equal(t, b.ID, all[1].ID)

	_, err := repo.Get(ctx, "ORD-000000")
	require.ErrorIs(t, err, ErrNotFound)
}
