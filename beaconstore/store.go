package beaconstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Kubuxu/go-broadcast"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	"github.com/ipfs/go-datastore/query"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("randoracle/beaconstore")

// ErrBeaconNotFound is returned when no randomness has been stored for the
// requested round.
var ErrBeaconNotFound = errors.New("beacon not found")

// ErrNoBeaconYet is returned by Latest when the store holds no beacon at all.
var ErrNoBeaconYet = errors.New("no beacon ingested yet")

// Beacon is one verified round and its derived randomness.
type Beacon struct {
	Round      uint64
	Randomness []byte
}

// Store is the durable round -> randomness ledger. Rounds are keyed with a
// fixed-width hex encoding so byte-lexicographic key order matches numeric
// round order; that makes the latest round a descending scan of depth one.
type Store struct {
	writeLk    sync.Mutex
	ds         datastore.Datastore
	busBeacons broadcast.Channel[*Beacon]
}

// NewStore creates a beacon store backed by ds.
// The passed Datastore has to be thread safe.
func NewStore(ctx context.Context, ds datastore.Datastore) (*Store, error) {
	bs := &Store{
		ds: namespace.Wrap(ds, datastore.NewKey("/beaconstore")),
	}
	latest, err := bs.loadLatest(ctx)
	if err != nil {
		return nil, xerrors.Errorf("loading latest beacon: %w", err)
	}
	if latest != nil {
		bs.busBeacons.Publish(latest)
	}
	return bs, nil
}

func (bs *Store) loadLatest(ctx context.Context) (*Beacon, error) {
	// This will optimize well on badger and leveldb.
	res, err := bs.ds.Query(ctx, query.Query{
		Prefix: "/beacons",
		Orders: []query.Order{query.OrderByKeyDescending{}},
		Limit:  1,
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to query for the latest beacon: %w", err)
	}
	defer res.Close()
	val, ok := res.NextSync()
	if !ok {
		return nil, nil
	}
	round, err := roundForKey(val.Key)
	if err != nil {
		return nil, xerrors.Errorf("parsing latest beacon key: %w", err)
	}
	return &Beacon{Round: round, Randomness: val.Value}, nil
}

// Latest returns the highest-round beacon, or ErrNoBeaconYet if the store
// is empty.
func (bs *Store) Latest() (*Beacon, error) {
	latest := bs.busBeacons.Last()
	if latest == nil {
		return nil, ErrNoBeaconYet
	}
	return latest, nil
}

// Get returns the randomness stored for round, or a wrapped
// ErrBeaconNotFound if the round has not been ingested.
func (bs *Store) Get(ctx context.Context, round uint64) ([]byte, error) {
	b, err := bs.ds.Get(ctx, keyForRound(round))
	if errors.Is(err, datastore.ErrNotFound) {
		return nil, xerrors.Errorf("beacon at %d: %w", round, ErrBeaconNotFound)
	}
	if err != nil {
		return nil, xerrors.Errorf("accessing beacon in datastore: %w", err)
	}
	return b, nil
}

// PutIfAbsent stores randomness for round unless the round already has a
// record. Re-ingesting a round is a silent no-op: the signature scheme makes
// any two valid signatures for a round derive identical randomness, so a
// differing stored value is logged as an invariant violation but never
// overwritten.
func (bs *Store) PutIfAbsent(ctx context.Context, round uint64, randomness []byte) error {
	key := keyForRound(round)

	bs.writeLk.Lock()
	defer bs.writeLk.Unlock()

	existing, err := bs.ds.Get(ctx, key)
	switch {
	case err == nil:
		if !bytes.Equal(existing, randomness) {
			log.Errorw("stored randomness differs from re-derived value, keeping stored",
				"round", round)
		}
		return nil
	case !errors.Is(err, datastore.ErrNotFound):
		return xerrors.Errorf("checking existence of beacon: %w", err)
	}

	if err := bs.ds.Put(ctx, key, randomness); err != nil {
		return xerrors.Errorf("putting the beacon: %w", err)
	}

	latest := bs.busBeacons.Last()
	if latest == nil || round > latest.Round {
		// Publish within the lock to ensure ordering.
		bs.busBeacons.Publish(&Beacon{Round: round, Randomness: randomness})
	}
	return nil
}

// Subscribe is used to subscribe to beacons that advance the latest round.
// Rounds ingested out of order below the current latest are stored but not
// published. If the passed
// channel is full at any point, it will be dropped from subscription and
// closed. To stop subscribing, either the closer function can be used or the
// channel can be abandoned. Passing a channel multiple times to Subscribe
// will result in a panic.
func (bs *Store) Subscribe(ch chan<- *Beacon) (last *Beacon, closer func()) {
	return bs.busBeacons.Subscribe(ch)
}

func keyForRound(round uint64) datastore.Key {
	return datastore.NewKey(fmt.Sprintf("/beacons/%016X", round))
}

func roundForKey(k string) (uint64, error) {
	hexRound, found := strings.CutPrefix(k, "/beacons/")
	if !found {
		return 0, xerrors.Errorf("beacon key %q lacks the expected prefix", k)
	}
	return strconv.ParseUint(hexRound, 16, 64)
}
