package stream

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"podfin/core/types"
)

const (
	EventTypeStreamCreated   = "stream.created"
	EventTypeStreamWithdrawn = "stream.withdrawn"
	EventTypeStreamCancelled = "stream.cancelled"
	EventTypeRequestCreated  = "stream.request.created"
	EventTypeRequestAccepted = "stream.request.accepted"
	EventTypeRequestRejected = "stream.request.rejected"
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

func newStreamEvent(eventType string, s *Stream) *types.Event {
	if s == nil {
		return &types.Event{Type: eventType, Attributes: map[string]string{}}
	}
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"id":        strconv.FormatUint(s.ID, 10),
			"sender":    hexAddr(s.Sender),
			"recipient": hexAddr(s.Recipient),
			"token":     s.Token,
			"deposit":   formatAmount(s.Deposit),
			"remaining": formatAmount(s.RemainingBalance),
			"startTime": strconv.FormatInt(s.StartTime, 10),
			"stopTime":  strconv.FormatInt(s.StopTime, 10),
		},
	}
}

func newRequestEvent(eventType string, r *Request) *types.Event {
	if r == nil {
		return &types.Event{Type: eventType, Attributes: map[string]string{}}
	}
	attrs := map[string]string{
		"id":        strconv.FormatUint(r.ID, 10),
		"sender":    hexAddr(r.Sender),
		"recipient": hexAddr(r.Recipient),
		"token":     r.Token,
		"deposit":   formatAmount(r.Deposit),
		"duration":  strconv.FormatInt(r.Duration, 10),
		"status":    r.Status.String(),
	}
	if r.StreamID != 0 {
		attrs["streamId"] = strconv.FormatUint(r.StreamID, 10)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

// NewCreatedEvent returns the canonical payload for a newly created stream.
func NewCreatedEvent(s *Stream) *types.Event { return newStreamEvent(EventTypeStreamCreated, s) }

// NewWithdrawnEvent returns the payload emitted when earned funds leave the
// stream custody.
func NewWithdrawnEvent(s *Stream, amount *big.Int) *types.Event {
	evt := newStreamEvent(EventTypeStreamWithdrawn, s)
	evt.Attributes["amount"] = formatAmount(amount)
	return evt
}

// NewCancelledEvent returns the payload emitted when a stream is terminated,
// recording the settlement paid to each side.
func NewCancelledEvent(s *Stream, senderBalance, recipientBalance *big.Int) *types.Event {
	evt := newStreamEvent(EventTypeStreamCancelled, s)
	evt.Attributes["senderBalance"] = formatAmount(senderBalance)
	evt.Attributes["recipientBalance"] = formatAmount(recipientBalance)
	return evt
}

// NewRequestCreatedEvent returns the payload for a new stream proposal.
func NewRequestCreatedEvent(r *Request) *types.Event {
	return newRequestEvent(EventTypeRequestCreated, r)
}

// NewRequestAcceptedEvent returns the payload emitted when the named sender
// accepts a proposal and the backing stream is created.
func NewRequestAcceptedEvent(r *Request) *types.Event {
	return newRequestEvent(EventTypeRequestAccepted, r)
}

// NewRequestRejectedEvent returns the payload emitted when the named sender
// declines a proposal.
func NewRequestRejectedEvent(r *Request) *types.Event {
	return newRequestEvent(EventTypeRequestRejected, r)
}
