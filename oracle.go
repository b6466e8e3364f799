package randoracle

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ipfs/go-datastore"
	"golang.org/x/xerrors"

	"github.com/entropynet/go-randoracle/beaconstore"
	"github.com/entropynet/go-randoracle/blssig"
	"github.com/entropynet/go-randoracle/bountystore"
	"github.com/entropynet/go-randoracle/escrow"
	"github.com/entropynet/go-randoracle/shuffle"
)

var configKey = datastore.NewKey("/randoracle/config")

// Transfer instructs the host to pay a claimed bounty out of the oracle's
// custody. The oracle itself moves no funds; it only emits the instruction.
type Transfer struct {
	Recipient string
	Amount    *escrow.Amount
	Denom     string
}

// Funds is a bounty contribution: an amount in a named denomination.
type Funds struct {
	Denom  string
	Amount *escrow.Amount
}

// SubmitResult is the successful outcome of a beacon submission: the
// derived randomness and, when the round carried a bounty, the transfer
// paying it to the submitter.
type SubmitResult struct {
	Randomness []byte
	Transfer   *Transfer
}

// Oracle verifies externally sourced drand beacons against the configured
// group key, derives and stores their randomness, and settles bounties
// attached to freshly published rounds. All mutating entry points are
// serialized under one lock, so the exactly-once payout property holds
// even on hosts that dispatch invocations concurrently.
type Oracle struct {
	lk       sync.Mutex
	ds       datastore.Datastore
	beacons  *beaconstore.Store
	bounties *bountystore.Store
	verifier blssig.Verifier
	cfg      *Config
}

// New opens an oracle over ds, loading the persisted configuration when one
// exists. The passed Datastore has to be thread safe.
func New(ctx context.Context, ds datastore.Datastore) (*Oracle, error) {
	beacons, err := beaconstore.NewStore(ctx, ds)
	if err != nil {
		return nil, xerrors.Errorf("opening beacon store: %w", err)
	}
	o := &Oracle{
		ds:       ds,
		beacons:  beacons,
		bounties: bountystore.NewStore(ds),
		verifier: blssig.NewVerifier(),
	}
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return o, nil
}

func (o *Oracle) loadConfig(ctx context.Context) (*Config, error) {
	b, err := o.ds.Get(ctx, configKey)
	if errors.Is(err, datastore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("accessing config in datastore: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, xerrors.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// Init establishes the deployment configuration. It fails with
// ErrAlreadyInitialized when called a second time and ErrInvalidPubkey when
// the group key does not decode.
func (o *Oracle) Init(ctx context.Context, cfg Config) error {
	o.lk.Lock()
	defer o.lk.Unlock()

	if o.cfg != nil {
		return ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	b, err := json.Marshal(&cfg)
	if err != nil {
		return xerrors.Errorf("marshalling config: %w", err)
	}
	if err := o.ds.Put(ctx, configKey, b); err != nil {
		return xerrors.Errorf("persisting config: %w", err)
	}
	o.cfg = &cfg
	log.Infow("oracle initialized", "denom", cfg.BountyDenom)
	return nil
}

// Config returns the established configuration, or ErrNotInitialized.
func (o *Oracle) Config() (Config, error) {
	o.lk.Lock()
	defer o.lk.Unlock()
	if o.cfg == nil {
		return Config{}, ErrNotInitialized
	}
	return *o.cfg, nil
}

// Submit runs the ingest transition for one beacon: verify the signature
// against the configured group key, derive its randomness, store it
// idempotently, and settle any bounty escrowed for the round. A failed
// verification mutates nothing. Resubmitting an already ingested round is
// valid and returns the stored randomness, but only the first submission
// can carry a bounty transfer.
func (o *Oracle) Submit(ctx context.Context, round uint64, prevSig, sig []byte, submitter string) (SubmitResult, error) {
	o.lk.Lock()
	defer o.lk.Unlock()

	if o.cfg == nil {
		return SubmitResult{}, ErrNotInitialized
	}
	// The key was validated at Init, but the configuration is persisted
	// state and is re-decoded defensively on every transition.
	pub, err := blssig.DecodePublicKey(o.cfg.PublicKey)
	if err != nil {
		return SubmitResult{}, xerrors.Errorf("%v: %w", err, ErrInvalidPubkey)
	}

	if !o.verifier.Verify(pub, round, prevSig, sig) {
		return SubmitResult{}, xerrors.Errorf("round %d: %w", round, ErrInvalidSignature)
	}

	randomness := blssig.DeriveRandomness(sig)
	if err := o.beacons.PutIfAbsent(ctx, round, randomness[:]); err != nil {
		return SubmitResult{}, xerrors.Errorf("storing beacon for round %d: %w", round, err)
	}

	bounty, err := o.bounties.Take(ctx, round)
	if err != nil {
		return SubmitResult{}, xerrors.Errorf("settling bounty for round %d: %w", round, err)
	}

	res := SubmitResult{Randomness: randomness[:]}
	if !bounty.IsZero() {
		res.Transfer = &Transfer{
			Recipient: submitter,
			Amount:    bounty,
			Denom:     o.cfg.BountyDenom,
		}
		log.Infow("bounty claimed", "round", round, "amount", bounty.String(), "recipient", submitter)
	}
	return res, nil
}

// ContributeBounty escrows funds against a not-yet-published round and
// returns the round's new accumulated amount. Contributions in the wrong
// denomination are refused outright, as are contributions to rounds whose
// beacon is already stored, since those could never be claimed.
func (o *Oracle) ContributeBounty(ctx context.Context, round uint64, funds Funds) (*escrow.Amount, error) {
	o.lk.Lock()
	defer o.lk.Unlock()

	if o.cfg == nil {
		return nil, ErrNotInitialized
	}
	if funds.Denom != o.cfg.BountyDenom {
		return nil, WrongDenominationError{Expected: o.cfg.BountyDenom, Got: funds.Denom}
	}

	_, err := o.beacons.Get(ctx, round)
	switch {
	case err == nil:
		return nil, xerrors.Errorf("round %d: %w", round, ErrAlreadySettled)
	case !errors.Is(err, beaconstore.ErrBeaconNotFound):
		return nil, xerrors.Errorf("checking settlement of round %d: %w", round, err)
	}

	total, err := o.bounties.Add(ctx, round, funds.Amount)
	if err != nil {
		return nil, xerrors.Errorf("escrowing bounty for round %d: %w", round, err)
	}
	return total, nil
}

// GetBeacon returns the randomness stored for round. A round that has not
// been published yet is a legitimate state, reported as empty bytes rather
// than an error.
func (o *Oracle) GetBeacon(ctx context.Context, round uint64) ([]byte, error) {
	randomness, err := o.beacons.Get(ctx, round)
	if errors.Is(err, beaconstore.ErrBeaconNotFound) {
		return []byte{}, nil
	}
	return randomness, err
}

// LatestBeacon returns the highest ingested round and its randomness, or
// beaconstore.ErrNoBeaconYet when nothing has been ingested.
func (o *Oracle) LatestBeacon() (*beaconstore.Beacon, error) {
	return o.beacons.Latest()
}

// ListBounties returns all open bounties in ascending round order.
func (o *Oracle) ListBounties(ctx context.Context) ([]bountystore.Entry, error) {
	return o.bounties.List(ctx)
}

// Subscribe delivers beacons that advance the latest round. See
// beaconstore.Store.Subscribe for channel semantics.
func (o *Oracle) Subscribe(ch chan<- *beaconstore.Beacon) (last *beaconstore.Beacon, closer func()) {
	return o.beacons.Subscribe(ch)
}

// Shuffle permutes the inclusive range [from, to] seeded by round's stored
// randomness. The range is validated before any storage access; shuffling
// an unpublished round fails with beaconstore.ErrBeaconNotFound.
func (o *Oracle) Shuffle(ctx context.Context, round uint64, from, to uint32) ([]uint32, error) {
	if from > to {
		return nil, xerrors.Errorf("shuffling on round %d: %w", round, shuffle.ErrInvalidRange)
	}

	randomness, err := o.beacons.Get(ctx, round)
	if err != nil {
		return nil, err
	}
	if len(randomness) != shuffle.SeedSize {
		return nil, xerrors.Errorf("stored randomness for round %d has %d bytes, want %d",
			round, len(randomness), shuffle.SeedSize)
	}
	return shuffle.Shuffle([shuffle.SeedSize]byte(randomness), from, to)
}
