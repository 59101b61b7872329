package auction

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"podfin/core/events"
	"podfin/core/types"
	"podfin/native/common"
	"podfin/native/percent"
)

// ModuleName keys the pause switch for the auction engine.
const ModuleName = "auction"

var (
	// Per-bid protocol fee bounds: [0.2%, 10%].
	minFeePercent = new(big.Int).Div(percent.Point, big.NewInt(5))
	maxFeePercent = new(big.Int).Mul(percent.Point, big.NewInt(10))
)

var (
	errNilState         = errors.New("auction engine: state not configured")
	errNilVault         = errors.New("auction engine: vault not configured")
	errNoShareMaxima    = errors.New("auction engine: share maxima not configured")
	errAuctionNotFound  = fmt.Errorf("auction engine: auction not found: %w", common.ErrNotFound)
	errNotAuthority     = fmt.Errorf("auction engine: caller is not the authority: %w", common.ErrUnauthorized)
	errNotDepositor     = fmt.Errorf("auction engine: caller is not the current depositor: %w", common.ErrUnauthorized)
	errNotArtist        = fmt.Errorf("auction engine: caller is not the verified artist: %w", common.ErrUnauthorized)
	errAuctionSettled   = fmt.Errorf("auction engine: auction already settled: %w", common.ErrInvalidState)
	errNoClaimingPool   = fmt.Errorf("auction engine: claiming pool not configured: %w", common.ErrInvalidState)
	errNoBids           = fmt.Errorf("auction engine: no bids recorded: %w", common.ErrInvalidState)
	errOutsideBidWindow = fmt.Errorf("auction engine: outside bidding window: %w", common.ErrInvalidState)
)

type engineState interface {
	AuctionPut(*Auction) error
	AuctionGet(id uint64) (*Auction, bool, error)
	AuctionNextID() (uint64, error)
	SharingShareGet(auctionID uint64, addr [20]byte) (*big.Int, error)
	SharingSharePut(auctionID uint64, addr [20]byte, amount *big.Int) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e auctionEvent) Event() *types.Event { return e.evt }

// Engine implements the auction settlement state machine: timed strict-
// ascending bidding with per-bid fee extraction, settlement of the net
// proceeds across creator, artist and sharing pool, and the idempotent
// sharing-share ledger.
type Engine struct {
	state        engineState
	emitter      events.Emitter
	pauser       common.PauseView
	lock         common.CallLock
	vault        [20]byte
	claimingPool [20]byte
	authority    [20]byte
	maxCreator   *big.Int
	maxSharing   *big.Int
	nowFn        func() int64
}

// NewEngine constructs an auction engine with a no-op emitter and wall-clock
// time source.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetVault configures the custody account holding escrowed bids.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetAuthority configures the account allowed to perform administrative
// transitions (artist verification, pod sharing, claiming pool changes).
func (e *Engine) SetAuthority(addr [20]byte) { e.authority = addr }

// SetPauser configures the pause gate consulted by mutating entry points.
func (e *Engine) SetPauser(p common.PauseView) { e.pauser = p }

// SetShareMaxima configures the upper bounds for the creator and sharing
// share percentages accepted at auction creation.
func (e *Engine) SetShareMaxima(maxCreator, maxSharing *big.Int) {
	e.maxCreator = cloneBigInt(maxCreator)
	e.maxSharing = cloneBigInt(maxSharing)
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetClaimingPool records the account accumulating per-bid fees. Authority
// only; bids fail until a pool is configured.
func (e *Engine) SetClaimingPool(caller, pool [20]byte) error {
	if e == nil {
		return errNilState
	}
	if caller != e.authority || common.IsZeroAddress(e.authority) {
		return errNotAuthority
	}
	if common.IsZeroAddress(pool) {
		return fmt.Errorf("auction engine: claiming pool is the zero address: %w", common.ErrInvalidArgument)
	}
	e.claimingPool = pool
	return nil
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(auctionEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if common.IsZeroAddress(e.vault) {
		return errNilVault
	}
	return nil
}

func (e *Engine) loadAuction(id uint64) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	a, ok, err := e.state.AuctionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || a == nil {
		return nil, errAuctionNotFound
	}
	return a, nil
}

// netProceeds returns the winning deposit less the per-bid fee already
// skimmed to the claiming pool.
func netProceeds(a *Auction) (*big.Int, error) {
	_, net, err := percent.SplitFee(a.LastHighDeposit, a.FeePercent)
	if err != nil {
		return nil, err
	}
	return net, nil
}

// Create registers a new pod auction. Shares are validated against the
// configured maxima and the fee against the protocol bounds; no funds move
// until the first bid.
func (e *Engine) Create(creator [20]byte, token string, creatorShare, sharingShare, feePercent *big.Int, startTime, bidEndTime, claimEndTime int64) (*Auction, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return nil, err
	}
	if e.maxCreator == nil || e.maxSharing == nil {
		return nil, errNoShareMaxima
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if common.IsZeroAddress(creator) {
		return nil, fmt.Errorf("auction engine: creator is the zero address: %w", common.ErrInvalidArgument)
	}
	if !percent.Valid(creatorShare) || creatorShare.Cmp(e.maxCreator) > 0 {
		return nil, fmt.Errorf("auction engine: creator share out of range: %w", common.ErrInvalidArgument)
	}
	if !percent.Valid(sharingShare) || sharingShare.Cmp(e.maxSharing) > 0 {
		return nil, fmt.Errorf("auction engine: sharing share out of range: %w", common.ErrInvalidArgument)
	}
	if feePercent == nil || feePercent.Cmp(minFeePercent) < 0 || feePercent.Cmp(maxFeePercent) > 0 {
		return nil, fmt.Errorf("auction engine: fee outside [0.2%%, 10%%]: %w", common.ErrInvalidArgument)
	}
	total := new(big.Int).Add(creatorShare, sharingShare)
	total.Add(total, feePercent)
	if total.Cmp(percent.One) >= 0 {
		return nil, fmt.Errorf("auction engine: shares plus fee must stay below 100%%: %w", common.ErrInvalidArgument)
	}
	now := e.now()
	if startTime < now {
		return nil, fmt.Errorf("auction engine: start time before now: %w", common.ErrInvalidArgument)
	}
	if startTime >= bidEndTime || bidEndTime >= claimEndTime {
		return nil, fmt.Errorf("auction engine: phase boundaries out of order: %w", common.ErrInvalidArgument)
	}
	id, err := e.state.AuctionNextID()
	if err != nil {
		return nil, err
	}
	a := &Auction{
		ID:              id,
		Creator:         creator,
		Token:           normalized,
		CreatorShare:    cloneBigInt(creatorShare),
		SharingShare:    cloneBigInt(sharingShare),
		FeePercent:      cloneBigInt(feePercent),
		StartTime:       startTime,
		BidEndTime:      bidEndTime,
		ClaimEndTime:    claimEndTime,
		LastHighDeposit: big.NewInt(0),
		Status:          AuctionInitiated,
	}
	if err := e.state.AuctionPut(a); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(a))
	return a.Clone(), nil
}

// Bid escrows a strictly higher deposit, refunds the displaced bidder their
// post-fee remainder and skims this bid's fee to the claiming pool. All
// three transfers settle or the whole bid unwinds; at most one bidder is
// ever in escrow. The displaced bidder's own fee stays with the pool.
func (e *Engine) Bid(id uint64, caller [20]byte, deposit *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	release, err := e.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return err
	}
	a, err := e.loadAuction(id)
	if err != nil {
		return err
	}
	if a.Status != AuctionInitiated {
		return errAuctionSettled
	}
	now := e.now()
	if now < a.StartTime || now >= a.BidEndTime {
		return errOutsideBidWindow
	}
	if common.IsZeroAddress(e.claimingPool) {
		return errNoClaimingPool
	}
	if caller == a.Depositor {
		return fmt.Errorf("auction engine: caller already holds the high bid: %w", common.ErrInvalidArgument)
	}
	if deposit == nil || deposit.Sign() <= 0 {
		return fmt.Errorf("auction engine: deposit must be positive: %w", common.ErrInvalidArgument)
	}
	if deposit.Cmp(a.LastHighDeposit) <= 0 {
		return fmt.Errorf("auction engine: deposit must exceed the current high bid: %w", common.ErrInvalidArgument)
	}
	prevDepositor := a.Depositor
	_, prevRefund, err := percent.SplitFee(a.LastHighDeposit, a.FeePercent)
	if err != nil {
		return err
	}
	newFee, _, err := percent.SplitFee(deposit, a.FeePercent)
	if err != nil {
		return err
	}
	prev := a.Clone()
	a.Depositor = caller
	a.LastHighDeposit = cloneBigInt(deposit)
	if err := e.state.AuctionPut(a); err != nil {
		return err
	}
	restoreAccounts, err := common.SnapshotAccounts(e.state, caller, e.vault, prevDepositor, e.claimingPool)
	if err != nil {
		return err
	}
	unwind := func(cause error) error {
		if restoreErr := restoreAccounts(); restoreErr != nil {
			return fmt.Errorf("auction engine: unwind bid accounts: %v: %w", restoreErr, cause)
		}
		if putErr := e.state.AuctionPut(prev); putErr != nil {
			return fmt.Errorf("auction engine: unwind bid record: %v: %w", putErr, cause)
		}
		return cause
	}
	if err := common.Transfer(e.state, caller, e.vault, a.Token, deposit); err != nil {
		return unwind(err)
	}
	if !common.IsZeroAddress(prevDepositor) && prevRefund.Sign() > 0 {
		if err := common.Transfer(e.state, e.vault, prevDepositor, a.Token, prevRefund); err != nil {
			return unwind(err)
		}
	}
	if err := common.Transfer(e.state, e.vault, e.claimingPool, a.Token, newFee); err != nil {
		return unwind(err)
	}
	e.emit(NewBidEvent(a, newFee, prevRefund, prevDepositor))
	return nil
}

// WithdrawBid lets the final depositor recover the post-fee deposit once the
// claim window lapses without the artist claiming. Terminal with respect to
// ClaimFunds. Not pause-gated: this is a recovery path.
func (e *Engine) WithdrawBid(id uint64, caller [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	release, err := e.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	a, err := e.loadAuction(id)
	if err != nil {
		return err
	}
	if a.Status != AuctionInitiated {
		return errAuctionSettled
	}
	if e.now() < a.ClaimEndTime {
		return fmt.Errorf("auction engine: claim window still open: %w", common.ErrInvalidState)
	}
	if common.IsZeroAddress(a.Depositor) {
		return errNoBids
	}
	if caller != a.Depositor {
		return errNotDepositor
	}
	_, refund, err := percent.SplitFee(a.LastHighDeposit, a.FeePercent)
	if err != nil {
		return err
	}
	prev := a.Clone()
	a.Status = AuctionWithdrawn
	if err := e.state.AuctionPut(a); err != nil {
		return err
	}
	restoreAccounts, err := common.SnapshotAccounts(e.state, e.vault, a.Depositor)
	if err != nil {
		return err
	}
	if err := common.Transfer(e.state, e.vault, a.Depositor, a.Token, refund); err != nil {
		if restoreErr := restoreAccounts(); restoreErr != nil {
			return fmt.Errorf("auction engine: unwind withdraw accounts: %v: %w", restoreErr, err)
		}
		if putErr := e.state.AuctionPut(prev); putErr != nil {
			return fmt.Errorf("auction engine: unwind withdraw record: %v: %w", putErr, err)
		}
		return err
	}
	e.emit(NewBidWithdrawnEvent(a, refund))
	return nil
}

// ClaimFunds settles the auction for the verified artist during the claim
// window. The net proceeds split exactly: creator and sharing shares are
// floored, the artist absorbs the remainder. The sharing pool stays in
// custody until participants claim it.
func (e *Engine) ClaimFunds(id uint64, caller [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	release, err := e.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return err
	}
	a, err := e.loadAuction(id)
	if err != nil {
		return err
	}
	if a.Status != AuctionInitiated {
		return errAuctionSettled
	}
	now := e.now()
	if now < a.BidEndTime || now >= a.ClaimEndTime {
		return fmt.Errorf("auction engine: outside claim window: %w", common.ErrInvalidState)
	}
	if common.IsZeroAddress(a.VerifiedArtist) || caller != a.VerifiedArtist {
		return errNotArtist
	}
	if common.IsZeroAddress(a.Depositor) {
		return errNoBids
	}
	net, err := netProceeds(a)
	if err != nil {
		return err
	}
	creatorShare := percent.Apply(net, a.CreatorShare)
	sharingPool := percent.Apply(net, a.SharingShare)
	artistShare := new(big.Int).Sub(net, creatorShare)
	artistShare.Sub(artistShare, sharingPool)
	prev := a.Clone()
	a.Status = AuctionClaimed
	if err := e.state.AuctionPut(a); err != nil {
		return err
	}
	restoreAccounts, err := common.SnapshotAccounts(e.state, e.vault, a.Creator, a.VerifiedArtist)
	if err != nil {
		return err
	}
	unwind := func(cause error) error {
		if restoreErr := restoreAccounts(); restoreErr != nil {
			return fmt.Errorf("auction engine: unwind claim accounts: %v: %w", restoreErr, cause)
		}
		if putErr := e.state.AuctionPut(prev); putErr != nil {
			return fmt.Errorf("auction engine: unwind claim record: %v: %w", putErr, cause)
		}
		return cause
	}
	if creatorShare.Sign() > 0 {
		if err := common.Transfer(e.state, e.vault, a.Creator, a.Token, creatorShare); err != nil {
			return unwind(err)
		}
	}
	if artistShare.Sign() > 0 {
		if err := common.Transfer(e.state, e.vault, a.VerifiedArtist, a.Token, artistShare); err != nil {
			return unwind(err)
		}
	}
	e.emit(NewClaimedEvent(a, creatorShare, artistShare, sharingPool))
	return nil
}

// VerifyArtist records the artist entitled to claim the auction. Authority
// only.
func (e *Engine) VerifyArtist(id uint64, caller, artist [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.authority || common.IsZeroAddress(e.authority) {
		return errNotAuthority
	}
	if common.IsZeroAddress(artist) {
		return fmt.Errorf("auction engine: artist is the zero address: %w", common.ErrInvalidArgument)
	}
	a, err := e.loadAuction(id)
	if err != nil {
		return err
	}
	a.VerifiedArtist = artist
	if err := e.state.AuctionPut(a); err != nil {
		return err
	}
	e.emit(NewArtistVerifiedEvent(a))
	return nil
}

// SharedPod distributes the sharing pool across the listed participants:
// each gets the floored equal split of the pool, dust stays unclaimed.
// Calling it again overwrites the listed entries rather than accumulating.
// Authority only, once bidding has closed.
func (e *Engine) SharedPod(id uint64, caller [20]byte, users [][20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.authority || common.IsZeroAddress(e.authority) {
		return errNotAuthority
	}
	if len(users) == 0 {
		return fmt.Errorf("auction engine: no participants listed: %w", common.ErrInvalidArgument)
	}
	a, err := e.loadAuction(id)
	if err != nil {
		return err
	}
	if e.now() < a.BidEndTime {
		return fmt.Errorf("auction engine: bidding still open: %w", common.ErrInvalidState)
	}
	if a.Status == AuctionWithdrawn {
		return fmt.Errorf("auction engine: deposit withdrawn, nothing to share: %w", common.ErrInvalidState)
	}
	if common.IsZeroAddress(a.Depositor) {
		return errNoBids
	}
	net, err := netProceeds(a)
	if err != nil {
		return err
	}
	pool := percent.Apply(net, a.SharingShare)
	perShare := new(big.Int).Div(pool, big.NewInt(int64(len(users))))
	for _, user := range users {
		if common.IsZeroAddress(user) {
			return fmt.Errorf("auction engine: participant is the zero address: %w", common.ErrInvalidArgument)
		}
		if err := e.state.SharingSharePut(id, user, perShare); err != nil {
			return err
		}
	}
	e.emit(NewSharedEvent(a, perShare, len(users)))
	return nil
}

// ClaimSharingShare drains the caller's sharing-share entitlement. The
// ledger entry is zeroed before the payout so a reentrant call observes an
// empty entitlement even without the lock.
func (e *Engine) ClaimSharingShare(id uint64, caller [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	release, err := e.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	a, err := e.loadAuction(id)
	if err != nil {
		return err
	}
	if a.Status == AuctionWithdrawn {
		// The withdrawn refund returned the full net deposit, so the sharing
		// pool no longer exists; paying the ledger would drain custody that
		// belongs to other auctions.
		return fmt.Errorf("auction engine: deposit withdrawn, sharing pool revoked: %w", common.ErrInvalidState)
	}
	owed, err := e.state.SharingShareGet(id, caller)
	if err != nil {
		return err
	}
	if owed == nil || owed.Sign() <= 0 {
		return fmt.Errorf("auction engine: no sharing share owed: %w", common.ErrInvalidState)
	}
	if err := e.state.SharingSharePut(id, caller, big.NewInt(0)); err != nil {
		return err
	}
	restoreAccounts, err := common.SnapshotAccounts(e.state, e.vault, caller)
	if err != nil {
		return err
	}
	if err := common.Transfer(e.state, e.vault, caller, a.Token, owed); err != nil {
		if restoreErr := restoreAccounts(); restoreErr != nil {
			return fmt.Errorf("auction engine: unwind share claim accounts: %v: %w", restoreErr, err)
		}
		if putErr := e.state.SharingSharePut(id, caller, owed); putErr != nil {
			return fmt.Errorf("auction engine: unwind share claim ledger: %v: %w", putErr, err)
		}
		return err
	}
	e.emit(NewShareClaimedEvent(a, caller, owed))
	return nil
}

// GetAuction returns a snapshot of the auction.
func (e *Engine) GetAuction(id uint64) (*Auction, error) {
	a, err := e.loadAuction(id)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

// SharingShare returns the amount currently owed to addr from the auction's
// sharing pool.
func (e *Engine) SharingShare(id uint64, addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.loadAuction(id); err != nil {
		return nil, err
	}
	owed, err := e.state.SharingShareGet(id, addr)
	if err != nil {
		return nil, err
	}
	if owed == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(owed), nil
}
