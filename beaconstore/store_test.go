package beaconstore

import (
	"context"
	"crypto/sha256"
	"testing"

	datastore "github.com/ipfs/go-datastore"
	ds_sync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"
)

func testRandomness(round uint64) []byte {
	sum := sha256.Sum256([]byte{byte(round)})
	return sum[:]
}

func TestEmptyStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ds := ds_sync.MutexWrap(datastore.NewMapDatastore())
	bs, err := NewStore(ctx, ds)
	require.NoError(t, err)

	_, err = bs.Latest()
	require.ErrorIs(t, err, ErrNoBeaconYet)

	_, err = bs.Get(ctx, 42)
	require.ErrorIs(t, err, ErrBeaconNotFound)
}

func TestPutAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ds := ds_sync.MutexWrap(datastore.NewMapDatastore())
	bs, err := NewStore(ctx, ds)
	require.NoError(t, err)

	require.NoError(t, bs.PutIfAbsent(ctx, 42, testRandomness(42)))

	got, err := bs.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, testRandomness(42), got)

	_, err = bs.Get(ctx, 41)
	require.ErrorIs(t, err, ErrBeaconNotFound)
}

func TestPutIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ds := ds_sync.MutexWrap(datastore.NewMapDatastore())
	bs, err := NewStore(ctx, ds)
	require.NoError(t, err)

	require.NoError(t, bs.PutIfAbsent(ctx, 7, testRandomness(7)))
	// a second put, even with a differing value, never overwrites
	require.NoError(t, bs.PutIfAbsent(ctx, 7, testRandomness(8)))

	got, err := bs.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, testRandomness(7), got)
}

func TestLatestTracksHighestRound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ds := ds_sync.MutexWrap(datastore.NewMapDatastore())
	bs, err := NewStore(ctx, ds)
	require.NoError(t, err)

	// out of order on purpose
	for _, round := range []uint64{42, 40, 45} {
		require.NoError(t, bs.PutIfAbsent(ctx, round, testRandomness(round)))
	}

	latest, err := bs.Latest()
	require.NoError(t, err)
	require.Equal(t, uint64(45), latest.Round)
	require.Equal(t, testRandomness(45), latest.Randomness)
}

func TestLatestSurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ds := ds_sync.MutexWrap(datastore.NewMapDatastore())

	bs, err := NewStore(ctx, ds)
	require.NoError(t, err)
	for _, round := range []uint64{40, 45, 42} {
		require.NoError(t, bs.PutIfAbsent(ctx, round, testRandomness(round)))
	}

	reopened, err := NewStore(ctx, ds)
	require.NoError(t, err)
	latest, err := reopened.Latest()
	require.NoError(t, err)
	require.Equal(t, uint64(45), latest.Round)
	require.Equal(t, testRandomness(45), latest.Randomness)
}

func TestKeyOrderMatchesRoundOrder(t *testing.T) {
	t.Parallel()

	// byte-lexicographic key order must equal numeric order, including
	// across the byte-width boundary at 0x100
	prev := keyForRound(0)
	for _, round := range []uint64{1, 255, 256, 1 << 16, 1 << 32, 1<<64 - 1} {
		k := keyForRound(round)
		require.Less(t, prev.String(), k.String())
		prev = k
	}
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ds := ds_sync.MutexWrap(datastore.NewMapDatastore())
	bs, err := NewStore(ctx, ds)
	require.NoError(t, err)

	require.NoError(t, bs.PutIfAbsent(ctx, 40, testRandomness(40)))

	ch := make(chan *Beacon, 4)
	last, closer := bs.Subscribe(ch)
	defer closer()
	require.Equal(t, uint64(40), last.Round)

	require.NoError(t, bs.PutIfAbsent(ctx, 45, testRandomness(45)))
	got := <-ch
	require.Equal(t, uint64(45), got.Round)
}
