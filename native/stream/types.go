package stream

import (
	"fmt"
	"math/big"

	"podfin/native/common"
)

// RequestStatus tracks the negotiation state of a stream proposal.
type RequestStatus uint8

const (
	RequestPending RequestStatus = iota
	RequestAccepted
	RequestRejected
)

// Valid reports whether the status is one of the defined lifecycle values.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the request can no longer transition.
func (s RequestStatus) Terminal() bool {
	return s == RequestAccepted || s == RequestRejected
}

// String returns the canonical lowercase name used in events.
func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestAccepted:
		return "accepted"
	case RequestRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Stream is a live continuously-vesting payment. The deposit is fixed at
// creation; RemainingBalance only ever decreases, and the record is removed
// once it reaches zero.
type Stream struct {
	ID               uint64
	Sender           [20]byte
	Recipient        [20]byte
	Token            string
	Deposit          *big.Int
	RatePerSecond    *big.Int
	RemainingBalance *big.Int
	StartTime        int64
	StopTime         int64
}

// Duration returns the streaming window length in seconds.
func (s *Stream) Duration() int64 {
	if s == nil {
		return 0
	}
	return s.StopTime - s.StartTime
}

// Clone returns a deep copy the caller can mutate safely.
func (s *Stream) Clone() *Stream {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Deposit = cloneBigInt(s.Deposit)
	clone.RatePerSecond = cloneBigInt(s.RatePerSecond)
	clone.RemainingBalance = cloneBigInt(s.RemainingBalance)
	return &clone
}

// Request is a pending proposal for a stream, raised by the eventual
// recipient so the named sender can fund it without prior coordination.
type Request struct {
	ID        uint64
	Sender    [20]byte
	Recipient [20]byte
	Token     string
	Deposit   *big.Int
	Duration  int64
	Status    RequestStatus
	StreamID  uint64
	CreatedAt int64
}

// Clone returns a deep copy the caller can mutate safely.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Deposit = cloneBigInt(r.Deposit)
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// SanitizeStream normalises and validates a stream record prior to storage.
func SanitizeStream(s *Stream) (*Stream, error) {
	if s == nil {
		return nil, fmt.Errorf("stream: nil record: %w", common.ErrInvalidArgument)
	}
	clone := s.Clone()
	token, err := common.NormalizeToken(clone.Token)
	if err != nil {
		return nil, err
	}
	clone.Token = token
	if clone.ID == 0 {
		return nil, fmt.Errorf("stream: id required: %w", common.ErrInvalidArgument)
	}
	if clone.Deposit.Sign() <= 0 {
		return nil, fmt.Errorf("stream: deposit must be positive: %w", common.ErrInvalidArgument)
	}
	if clone.StopTime <= clone.StartTime {
		return nil, fmt.Errorf("stream: stop time must follow start time: %w", common.ErrInvalidArgument)
	}
	if clone.RatePerSecond.Sign() <= 0 {
		return nil, fmt.Errorf("stream: rate must be positive: %w", common.ErrInvalidArgument)
	}
	if clone.RemainingBalance.Sign() < 0 || clone.RemainingBalance.Cmp(clone.Deposit) > 0 {
		return nil, fmt.Errorf("stream: remaining balance out of range: %w", common.ErrInvalidArgument)
	}
	return clone, nil
}

// SanitizeRequest normalises and validates a request record prior to storage.
func SanitizeRequest(r *Request) (*Request, error) {
	if r == nil {
		return nil, fmt.Errorf("stream request: nil record: %w", common.ErrInvalidArgument)
	}
	clone := r.Clone()
	token, err := common.NormalizeToken(clone.Token)
	if err != nil {
		return nil, err
	}
	clone.Token = token
	if clone.ID == 0 {
		return nil, fmt.Errorf("stream request: id required: %w", common.ErrInvalidArgument)
	}
	if clone.Deposit.Sign() <= 0 {
		return nil, fmt.Errorf("stream request: deposit must be positive: %w", common.ErrInvalidArgument)
	}
	if clone.Duration <= 0 {
		return nil, fmt.Errorf("stream request: duration must be positive: %w", common.ErrInvalidArgument)
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("stream request: invalid status: %w", common.ErrInvalidArgument)
	}
	return clone, nil
}
