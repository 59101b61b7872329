package auction

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"podfin/core/types"
)

const (
	EventTypeAuctionCreated = "auction.created"
	EventTypeAuctionBid     = "auction.bid"
	EventTypeAuctionClaimed = "auction.claimed"
	EventTypeBidWithdrawn   = "auction.bid.withdrawn"
	EventTypeArtistVerified = "auction.artist.verified"
	EventTypePodShared      = "auction.shared"
	EventTypeShareClaimed   = "auction.share.claimed"
)

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newAuctionEvent(eventType string, a *Auction) *types.Event {
	if a == nil {
		return &types.Event{Type: eventType, Attributes: map[string]string{}}
	}
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"id":              strconv.FormatUint(a.ID, 10),
			"creator":         hexAddr(a.Creator),
			"token":           a.Token,
			"status":          a.Status.String(),
			"depositor":       hexAddr(a.Depositor),
			"lastHighDeposit": formatAmount(a.LastHighDeposit),
			"startTime":       strconv.FormatInt(a.StartTime, 10),
			"bidEndTime":      strconv.FormatInt(a.BidEndTime, 10),
			"claimEndTime":    strconv.FormatInt(a.ClaimEndTime, 10),
		},
	}
}

// NewCreatedEvent returns the canonical payload for a newly created auction.
func NewCreatedEvent(a *Auction) *types.Event { return newAuctionEvent(EventTypeAuctionCreated, a) }

// NewBidEvent returns the payload emitted when a bid displaces the previous
// high deposit, recording the per-bid fee and the refund to the outbid
// depositor.
func NewBidEvent(a *Auction, fee, refund *big.Int, outbid [20]byte) *types.Event {
	evt := newAuctionEvent(EventTypeAuctionBid, a)
	evt.Attributes["fee"] = formatAmount(fee)
	evt.Attributes["refund"] = formatAmount(refund)
	evt.Attributes["outbid"] = hexAddr(outbid)
	return evt
}

// NewClaimedEvent returns the payload emitted when the verified artist claims
// the auction, recording the exact three-way split of the net proceeds.
func NewClaimedEvent(a *Auction, creatorShare, artistShare, sharingPool *big.Int) *types.Event {
	evt := newAuctionEvent(EventTypeAuctionClaimed, a)
	evt.Attributes["creatorShare"] = formatAmount(creatorShare)
	evt.Attributes["artistShare"] = formatAmount(artistShare)
	evt.Attributes["sharingPool"] = formatAmount(sharingPool)
	return evt
}

// NewBidWithdrawnEvent returns the payload emitted when the final depositor
// recovers their net deposit after the claim window lapses.
func NewBidWithdrawnEvent(a *Auction, refund *big.Int) *types.Event {
	evt := newAuctionEvent(EventTypeBidWithdrawn, a)
	evt.Attributes["refund"] = formatAmount(refund)
	return evt
}

// NewArtistVerifiedEvent returns the payload emitted when the authority
// records the verified artist.
func NewArtistVerifiedEvent(a *Auction) *types.Event {
	evt := newAuctionEvent(EventTypeArtistVerified, a)
	evt.Attributes["artist"] = hexAddr(a.VerifiedArtist)
	return evt
}

// NewSharedEvent returns the payload emitted when the sharing pool is
// distributed across the listed participants.
func NewSharedEvent(a *Auction, perShare *big.Int, users int) *types.Event {
	evt := newAuctionEvent(EventTypePodShared, a)
	evt.Attributes["perShare"] = formatAmount(perShare)
	evt.Attributes["users"] = strconv.Itoa(users)
	return evt
}

// NewShareClaimedEvent returns the payload emitted when a participant drains
// their sharing-share entitlement.
func NewShareClaimedEvent(a *Auction, claimant [20]byte, amount *big.Int) *types.Event {
	evt := newAuctionEvent(EventTypeShareClaimed, a)
	evt.Attributes["claimant"] = hexAddr(claimant)
	evt.Attributes["amount"] = formatAmount(amount)
	return evt
}
