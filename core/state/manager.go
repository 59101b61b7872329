package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"podfin/core/types"
	"podfin/native/auction"
	"podfin/native/stream"
	"podfin/storage"
)

// Manager persists accounts, streams, stream requests, auctions and the
// sharing-share ledger in a key-value store. It satisfies the state
// interfaces of both native engines and the pause view consulted by their
// guards. Records are stored as RLP-encoded mirror structs so the on-disk
// layout stays independent of the in-memory types.
type Manager struct {
	db storage.Database
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var errNilDB = errors.New("state: database not configured")

type storedAccount struct {
	Nonce       uint64
	BalancePOD  *big.Int
	BalanceZPOD *big.Int
}

type storedStream struct {
	ID               uint64
	Sender           [20]byte
	Recipient        [20]byte
	Token            string
	Deposit          *big.Int
	RatePerSecond    *big.Int
	RemainingBalance *big.Int
	StartTime        uint64
	StopTime         uint64
}

type storedRequest struct {
	ID        uint64
	Sender    [20]byte
	Recipient [20]byte
	Token     string
	Deposit   *big.Int
	Duration  uint64
	Status    uint8
	StreamID  uint64
	CreatedAt uint64
}

type storedAuction struct {
	ID              uint64
	Creator         [20]byte
	Token           string
	VerifiedArtist  [20]byte
	Depositor       [20]byte
	CreatorShare    *big.Int
	SharingShare    *big.Int
	FeePercent      *big.Int
	StartTime       uint64
	BidEndTime      uint64
	ClaimEndTime    uint64
	LastHighDeposit *big.Int
	Status          uint8
}

func (m *Manager) ready() error {
	if m == nil || m.db == nil {
		return errNilDB
	}
	return nil
}

func (m *Manager) getRLP(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putRLP(key []byte, in interface{}) error {
	encoded, err := rlp.EncodeToBytes(in)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) nextID(counterKey []byte) (uint64, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	var current uint64
	if _, err := m.getRLP(counterKey, &current); err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.putRLP(counterKey, next); err != nil {
		return 0, err
	}
	return next, nil
}

// GetAccount returns the account stored for addr, or a zeroed account when
// none exists yet.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	stored := &storedAccount{}
	ok, err := m.getRLP(accountKey(addr), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.NewAccount(), nil
	}
	acc := &types.Account{
		Nonce:       stored.Nonce,
		BalancePOD:  stored.BalancePOD,
		BalanceZPOD: stored.BalanceZPOD,
	}
	return acc.Clone(), nil
}

// PutAccount stores the account under addr.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if err := m.ready(); err != nil {
		return err
	}
	acc := account.Clone()
	stored := &storedAccount{
		Nonce:       acc.Nonce,
		BalancePOD:  acc.BalancePOD,
		BalanceZPOD: acc.BalanceZPOD,
	}
	return m.putRLP(accountKey(addr), stored)
}

// StreamPut sanitises and stores a stream record.
func (m *Manager) StreamPut(s *stream.Stream) error {
	if err := m.ready(); err != nil {
		return err
	}
	sanitized, err := stream.SanitizeStream(s)
	if err != nil {
		return err
	}
	stored := &storedStream{
		ID:               sanitized.ID,
		Sender:           sanitized.Sender,
		Recipient:        sanitized.Recipient,
		Token:            sanitized.Token,
		Deposit:          sanitized.Deposit,
		RatePerSecond:    sanitized.RatePerSecond,
		RemainingBalance: sanitized.RemainingBalance,
		StartTime:        uint64(sanitized.StartTime),
		StopTime:         uint64(sanitized.StopTime),
	}
	return m.putRLP(streamKey(sanitized.ID), stored)
}

// StreamGet resolves a live stream by id.
func (m *Manager) StreamGet(id uint64) (*stream.Stream, bool, error) {
	if err := m.ready(); err != nil {
		return nil, false, err
	}
	stored := &storedStream{}
	ok, err := m.getRLP(streamKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	s := &stream.Stream{
		ID:               stored.ID,
		Sender:           stored.Sender,
		Recipient:        stored.Recipient,
		Token:            stored.Token,
		Deposit:          stored.Deposit,
		RatePerSecond:    stored.RatePerSecond,
		RemainingBalance: stored.RemainingBalance,
		StartTime:        int64(stored.StartTime),
		StopTime:         int64(stored.StopTime),
	}
	return s.Clone(), true, nil
}

// StreamDelete clears the stream slot. The id counter never rewinds, so ids
// are never reused.
func (m *Manager) StreamDelete(id uint64) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.db.Delete(streamKey(id))
}

// StreamNextID assigns the next stream id, starting at 1.
func (m *Manager) StreamNextID() (uint64, error) {
	return m.nextID(streamCounterKey)
}

// RequestPut sanitises and stores a stream request record.
func (m *Manager) RequestPut(r *stream.Request) error {
	if err := m.ready(); err != nil {
		return err
	}
	sanitized, err := stream.SanitizeRequest(r)
	if err != nil {
		return err
	}
	stored := &storedRequest{
		ID:        sanitized.ID,
		Sender:    sanitized.Sender,
		Recipient: sanitized.Recipient,
		Token:     sanitized.Token,
		Deposit:   sanitized.Deposit,
		Duration:  uint64(sanitized.Duration),
		Status:    uint8(sanitized.Status),
		StreamID:  sanitized.StreamID,
		CreatedAt: uint64(sanitized.CreatedAt),
	}
	return m.putRLP(requestKey(sanitized.ID), stored)
}

// RequestGet resolves a stream request by id.
func (m *Manager) RequestGet(id uint64) (*stream.Request, bool, error) {
	if err := m.ready(); err != nil {
		return nil, false, err
	}
	stored := &storedRequest{}
	ok, err := m.getRLP(requestKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	r := &stream.Request{
		ID:        stored.ID,
		Sender:    stored.Sender,
		Recipient: stored.Recipient,
		Token:     stored.Token,
		Deposit:   stored.Deposit,
		Duration:  int64(stored.Duration),
		Status:    stream.RequestStatus(stored.Status),
		StreamID:  stored.StreamID,
		CreatedAt: int64(stored.CreatedAt),
	}
	return r.Clone(), true, nil
}

// RequestNextID assigns the next stream request id, starting at 1.
func (m *Manager) RequestNextID() (uint64, error) {
	return m.nextID(requestCounterKey)
}

// AuctionPut sanitises and stores an auction record.
func (m *Manager) AuctionPut(a *auction.Auction) error {
	if err := m.ready(); err != nil {
		return err
	}
	sanitized, err := auction.SanitizeAuction(a)
	if err != nil {
		return err
	}
	stored := &storedAuction{
		ID:              sanitized.ID,
		Creator:         sanitized.Creator,
		Token:           sanitized.Token,
		VerifiedArtist:  sanitized.VerifiedArtist,
		Depositor:       sanitized.Depositor,
		CreatorShare:    sanitized.CreatorShare,
		SharingShare:    sanitized.SharingShare,
		FeePercent:      sanitized.FeePercent,
		StartTime:       uint64(sanitized.StartTime),
		BidEndTime:      uint64(sanitized.BidEndTime),
		ClaimEndTime:    uint64(sanitized.ClaimEndTime),
		LastHighDeposit: sanitized.LastHighDeposit,
		Status:          uint8(sanitized.Status),
	}
	return m.putRLP(auctionKey(sanitized.ID), stored)
}

// AuctionGet resolves an auction by id.
func (m *Manager) AuctionGet(id uint64) (*auction.Auction, bool, error) {
	if err := m.ready(); err != nil {
		return nil, false, err
	}
	stored := &storedAuction{}
	ok, err := m.getRLP(auctionKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	a := &auction.Auction{
		ID:              stored.ID,
		Creator:         stored.Creator,
		Token:           stored.Token,
		VerifiedArtist:  stored.VerifiedArtist,
		Depositor:       stored.Depositor,
		CreatorShare:    stored.CreatorShare,
		SharingShare:    stored.SharingShare,
		FeePercent:      stored.FeePercent,
		StartTime:       int64(stored.StartTime),
		BidEndTime:      int64(stored.BidEndTime),
		ClaimEndTime:    int64(stored.ClaimEndTime),
		LastHighDeposit: stored.LastHighDeposit,
		Status:          auction.Status(stored.Status),
	}
	return a.Clone(), true, nil
}

// AuctionNextID assigns the next auction id, starting at 1.
func (m *Manager) AuctionNextID() (uint64, error) {
	return m.nextID(auctionCounterKey)
}

// SharingShareGet returns the amount owed to addr from the auction's sharing
// pool, zero when nothing was ever recorded.
func (m *Manager) SharingShareGet(auctionID uint64, addr [20]byte) (*big.Int, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	owed := new(big.Int)
	ok, err := m.getRLP(sharingKey(auctionID, addr), owed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return owed, nil
}

// SharingSharePut overwrites the amount owed to addr for the auction.
func (m *Manager) SharingSharePut(auctionID uint64, addr [20]byte, amount *big.Int) error {
	if err := m.ready(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: sharing share must be non-negative")
	}
	return m.putRLP(sharingKey(auctionID, addr), amount)
}

// IsPaused reports whether the named module's pause switch is set. Missing
// or unreadable flags never block.
func (m *Manager) IsPaused(module string) bool {
	if m == nil || m.db == nil {
		return false
	}
	ok, err := m.db.Has(pauseKey(module))
	if err != nil {
		return false
	}
	return ok
}

// SetPaused toggles the named module's pause switch.
func (m *Manager) SetPaused(module string, paused bool) error {
	if err := m.ready(); err != nil {
		return err
	}
	if paused {
		return m.db.Put(pauseKey(module), []byte{0x01})
	}
	return m.db.Delete(pauseKey(module))
}
