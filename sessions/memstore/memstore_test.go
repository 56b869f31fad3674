package memstore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/sessions"
	"github.com/jrsteele09/go-social-connect/sessions/memstore"
	"github.com/stretchr/testify/require"
)

func connection(userID string) sessions.PlatformConnection {
	return sessions.PlatformConnection{
		Account:       sessions.Account{UserID: userID, Username: "user-" + userID},
		AccountTokens: sessions.AccountTokens{AccessToken: "tok-" + userID, ExpiresAt: time.Now().Add(time.Hour).UnixMilli()},
	}
}

func TestStore_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(time.Hour, time.Minute)

	sess := &sessions.Session{UserID: "u1", Plan: platforms.PlanFreemium}
	id, err := store.Create(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, id, sess.ID)
	require.Equal(t, 1, store.Count())

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)
	require.False(t, got.CreatedAt.IsZero())
	require.NotNil(t, got.ConnectedPlatforms)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "missing"))
}

func TestStore_Apply(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(time.Hour, time.Minute)
	id, err := store.Create(ctx, &sessions.Session{UserID: "u1", Plan: platforms.PlanPremiumMonthly})
	require.NoError(t, err)

	t.Run("set pending", func(t *testing.T) {
		got, err := store.Apply(ctx, id, &sessions.Patch{SetPending: &sessions.Pending{State: "s", CodeVerifier: "v", CodeChallenge: "c"}})
		require.NoError(t, err)
		require.Equal(t, sessions.Pending{State: "s", CodeVerifier: "v", CodeChallenge: "c"}, got.Pending())
	})

	t.Run("upsert clears pending", func(t *testing.T) {
		got, err := store.Apply(ctx, id, &sessions.Patch{
			ClearPending: true,
			Upsert:       map[platforms.Platform]sessions.PlatformConnection{platforms.Facebook: connection("fb")},
		})
		require.NoError(t, err)
		require.Empty(t, got.State)
		require.True(t, got.IsConnected(platforms.Facebook))
	})

	t.Run("remove", func(t *testing.T) {
		got, err := store.Apply(ctx, id, &sessions.Patch{Remove: []platforms.Platform{platforms.Facebook, platforms.Twitter}})
		require.NoError(t, err)
		require.Empty(t, got.ConnectedPlatforms)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := store.Apply(ctx, "nope", &sessions.Patch{ClearPending: true})
		require.ErrorIs(t, err, sessions.ErrSessionNotFound)
	})
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(time.Hour, time.Minute)
	id, err := store.Create(ctx, &sessions.Session{UserID: "u1", Plan: platforms.PlanFreemium})
	require.NoError(t, err)

	snap, err := store.Get(ctx, id)
	require.NoError(t, err)
	snap.ConnectedPlatforms[platforms.Amazon] = connection("am")

	fresh, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, fresh.IsConnected(platforms.Amazon))
}

func TestStore_ConcurrentPatchesKeepEveryConnection(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(time.Hour, time.Minute)
	id, err := store.Create(ctx, &sessions.Session{UserID: "u1", Plan: platforms.PlanPremiumYearly})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i, p := range platforms.All {
		wg.Add(1)
		go func(i int, p platforms.Platform) {
			defer wg.Done()
			_, err := store.Apply(ctx, id, &sessions.Patch{
				Upsert: map[platforms.Platform]sessions.PlatformConnection{p: connection(fmt.Sprint(i))},
			})
			require.NoError(t, err)
		}(i, p)
	}
	wg.Wait()

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.ConnectedPlatforms, len(platforms.All))
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(20*time.Millisecond, time.Hour)
	id, err := store.Create(ctx, &sessions.Session{UserID: "u1", Plan: platforms.PlanFreemium})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, id)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestStore_GetRefreshesExpiry(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(200*time.Millisecond, time.Hour)
	id, err := store.Create(ctx, &sessions.Session{UserID: "u1", Plan: platforms.PlanFreemium})
	require.NoError(t, err)

	// reads alone keep the session alive well past one TTL
	deadline := time.Now().Add(600 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, err := store.Get(ctx, id)
		require.NoError(t, err)
		time.Sleep(40 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, id)
		return err != nil
	}, 2*time.Second, 250*time.Millisecond)
}
