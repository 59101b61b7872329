package auction

import (
	"fmt"
	"math/big"

	"podfin/native/common"
	"podfin/native/percent"
)

// Status tracks the auction lifecycle. Auctions are never deleted; the
// terminal states preserve history for sharing-share lookups.
type Status uint8

const (
	AuctionInitiated Status = iota
	AuctionClaimed
	AuctionWithdrawn
)

// Valid reports whether the status is one of the defined lifecycle values.
func (s Status) Valid() bool {
	switch s {
	case AuctionInitiated, AuctionClaimed, AuctionWithdrawn:
		return true
	default:
		return false
	}
}

// Terminal reports whether the auction can no longer settle.
func (s Status) Terminal() bool {
	return s == AuctionClaimed || s == AuctionWithdrawn
}

// String returns the canonical lowercase name used in events.
func (s Status) String() string {
	switch s {
	case AuctionInitiated:
		return "initiated"
	case AuctionClaimed:
		return "claimed"
	case AuctionWithdrawn:
		return "withdrawn"
	default:
		return "unknown"
	}
}

// Auction is a strict-ascending sealed-settlement pod auction. The share
// percentages are fixed-point fractions of the net proceeds (winning deposit
// minus the protocol fee).
type Auction struct {
	ID              uint64
	Creator         [20]byte
	Token           string
	VerifiedArtist  [20]byte
	Depositor       [20]byte
	CreatorShare    *big.Int
	SharingShare    *big.Int
	FeePercent      *big.Int
	StartTime       int64
	BidEndTime      int64
	ClaimEndTime    int64
	LastHighDeposit *big.Int
	Status          Status
}

// Clone returns a deep copy the caller can mutate safely.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	clone.CreatorShare = cloneBigInt(a.CreatorShare)
	clone.SharingShare = cloneBigInt(a.SharingShare)
	clone.FeePercent = cloneBigInt(a.FeePercent)
	clone.LastHighDeposit = cloneBigInt(a.LastHighDeposit)
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// SanitizeAuction normalises and validates an auction record prior to
// storage.
func SanitizeAuction(a *Auction) (*Auction, error) {
	if a == nil {
		return nil, fmt.Errorf("auction: nil record: %w", common.ErrInvalidArgument)
	}
	clone := a.Clone()
	token, err := common.NormalizeToken(clone.Token)
	if err != nil {
		return nil, err
	}
	clone.Token = token
	if clone.ID == 0 {
		return nil, fmt.Errorf("auction: id required: %w", common.ErrInvalidArgument)
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("auction: invalid status: %w", common.ErrInvalidArgument)
	}
	if !percent.Valid(clone.CreatorShare) || !percent.Valid(clone.SharingShare) || !percent.Valid(clone.FeePercent) {
		return nil, fmt.Errorf("auction: share percentage out of range: %w", common.ErrInvalidArgument)
	}
	if clone.StartTime >= clone.BidEndTime || clone.BidEndTime >= clone.ClaimEndTime {
		return nil, fmt.Errorf("auction: phase boundaries out of order: %w", common.ErrInvalidArgument)
	}
	if clone.LastHighDeposit.Sign() < 0 {
		return nil, fmt.Errorf("auction: negative high deposit: %w", common.ErrInvalidArgument)
	}
	return clone, nil
}
