package bountystore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	"github.com/ipfs/go-datastore/query"
	"golang.org/x/xerrors"

	"github.com/entropynet/go-randoracle/escrow"
)

// Entry is the accumulated escrow attached to one not-yet-published round.
type Entry struct {
	Round  uint64
	Amount *escrow.Amount
}

// Store is the durable round -> escrowed amount ledger. It shares a
// datastore with the beacon ledger but lives in a disjoint namespace.
// Amount arithmetic is overflow-checked; wrapping is never possible.
type Store struct {
	writeLk sync.Mutex
	ds      datastore.Datastore
}

// NewStore creates a bounty store backed by ds.
// The passed Datastore has to be thread safe.
func NewStore(ds datastore.Datastore) *Store {
	return &Store{
		ds: namespace.Wrap(ds, datastore.NewKey("/bountystore")),
	}
}

// Add accumulates amount into the entry for round, creating it if absent,
// and returns the new total. It fails with escrow.ErrAmountOverflow when
// the total would exceed the representable range; the entry is untouched
// in that case.
func (s *Store) Add(ctx context.Context, round uint64, amount *escrow.Amount) (*escrow.Amount, error) {
	s.writeLk.Lock()
	defer s.writeLk.Unlock()

	current, err := s.get(ctx, round)
	if err != nil {
		return nil, err
	}
	total, err := escrow.Add(current, amount)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := total.MarshalCBOR(&buf); err != nil {
		return nil, xerrors.Errorf("marshalling bounty for round %d: %w", round, err)
	}
	if err := s.ds.Put(ctx, keyForRound(round), buf.Bytes()); err != nil {
		return nil, xerrors.Errorf("putting the bounty: %w", err)
	}
	return total, nil
}

// Take returns the escrowed amount for round, zero if there is none, and
// deletes the entry. It is called exactly once per settlement: a later call
// for the same round observes a zero balance.
func (s *Store) Take(ctx context.Context, round uint64) (*escrow.Amount, error) {
	s.writeLk.Lock()
	defer s.writeLk.Unlock()

	amount, err := s.get(ctx, round)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return amount, nil
	}
	if err := s.ds.Delete(ctx, keyForRound(round)); err != nil {
		return nil, xerrors.Errorf("deleting claimed bounty for round %d: %w", round, err)
	}
	return amount, nil
}

// List returns all open bounties in ascending round order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	res, err := s.ds.Query(ctx, query.Query{
		Prefix: "/bounties",
		Orders: []query.Order{query.OrderByKey{}},
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to query for bounties: %w", err)
	}
	defer res.Close()

	var entries []Entry
	for val, ok := res.NextSync(); ok; val, ok = res.NextSync() {
		if val.Error != nil {
			return nil, xerrors.Errorf("iterating bounties: %w", val.Error)
		}
		round, err := roundForKey(val.Key)
		if err != nil {
			return nil, xerrors.Errorf("parsing bounty key: %w", err)
		}
		var amount escrow.Amount
		if err := amount.UnmarshalCBOR(bytes.NewReader(val.Value)); err != nil {
			return nil, xerrors.Errorf("unmarshalling bounty for round %d: %w", round, err)
		}
		entries = append(entries, Entry{Round: round, Amount: &amount})
	}
	return entries, nil
}

func (s *Store) get(ctx context.Context, round uint64) (*escrow.Amount, error) {
	b, err := s.ds.Get(ctx, keyForRound(round))
	if errors.Is(err, datastore.ErrNotFound) {
		return escrow.Zero(), nil
	}
	if err != nil {
		return nil, xerrors.Errorf("accessing bounty in datastore: %w", err)
	}
	var amount escrow.Amount
	if err := amount.UnmarshalCBOR(bytes.NewReader(b)); err != nil {
		return nil, xerrors.Errorf("unmarshalling bounty for round %d: %w", round, err)
	}
	return &amount, nil
}

func keyForRound(round uint64) datastore.Key {
	return datastore.NewKey(fmt.Sprintf("/bounties/%016X", round))
}

func roundForKey(k string) (uint64, error) {
	hexRound, found := strings.CutPrefix(k, "/bounties/")
	if !found {
		return 0, xerrors.Errorf("bounty key %q lacks the expected prefix", k)
	}
	return strconv.ParseUint(hexRound, 16, 64)
}
