package stream

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"podfin/core/events"
	"podfin/core/types"
	"podfin/native/common"
)

// ModuleName keys the pause switch for the stream engine.
const ModuleName = "stream"

var (
	errNilState         = errors.New("stream engine: state not configured")
	errNilVault         = errors.New("stream engine: vault not configured")
	errStreamNotFound   = fmt.Errorf("stream engine: stream not found: %w", common.ErrNotFound)
	errRequestNotFound  = fmt.Errorf("stream engine: request not found: %w", common.ErrNotFound)
	errNotParticipant   = fmt.Errorf("stream engine: caller is neither sender nor recipient: %w", common.ErrUnauthorized)
	errNotRequestSender = fmt.Errorf("stream engine: caller is not the named sender: %w", common.ErrUnauthorized)
	errRequestSettled   = fmt.Errorf("stream engine: request already settled: %w", common.ErrInvalidState)
)

type engineState interface {
	StreamPut(*Stream) error
	StreamGet(id uint64) (*Stream, bool, error)
	StreamDelete(id uint64) error
	StreamNextID() (uint64, error)
	RequestPut(*Request) error
	RequestGet(id uint64) (*Request, bool, error)
	RequestNextID() (uint64, error)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

type streamEvent struct {
	evt *types.Event
}

func (e streamEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e streamEvent) Event() *types.Event { return e.evt }

// Engine implements the stream accounting state machine: time-proportional
// balance math over escrowed deposits, the withdraw/cancel settlement paths
// and the request/accept/reject negotiation that produces streams.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauser  common.PauseView
	lock    common.CallLock
	vault   [20]byte
	nowFn   func() int64
}

// NewEngine constructs a stream engine with a no-op emitter and wall-clock
// time source.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetVault configures the custody account holding escrowed deposits.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetPauser configures the pause gate consulted by mutating entry points.
func (e *Engine) SetPauser(p common.PauseView) { e.pauser = p }

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

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(streamEvent{evt: evt})
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

func (e *Engine) loadStream(id uint64) (*Stream, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	s, ok, err := e.state.StreamGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || s == nil {
		return nil, errStreamNotFound
	}
	return s, nil
}

func (e *Engine) loadRequest(id uint64) (*Request, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	r, ok, err := e.state.RequestGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || r == nil {
		return nil, errRequestNotFound
	}
	return r, nil
}

func validateSchedule(deposit *big.Int, startTime, stopTime, now int64) (*big.Int, error) {
	if deposit == nil || deposit.Sign() <= 0 {
		return nil, fmt.Errorf("stream engine: deposit must be positive: %w", common.ErrInvalidArgument)
	}
	if startTime < now {
		return nil, fmt.Errorf("stream engine: start time before now: %w", common.ErrInvalidArgument)
	}
	if stopTime <= startTime {
		return nil, fmt.Errorf("stream engine: stop time must follow start time: %w", common.ErrInvalidArgument)
	}
	duration := big.NewInt(stopTime - startTime)
	if deposit.Cmp(duration) < 0 {
		return nil, fmt.Errorf("stream engine: deposit smaller than duration: %w", common.ErrInvalidArgument)
	}
	if new(big.Int).Mod(deposit, duration).Sign() != 0 {
		return nil, fmt.Errorf("stream engine: deposit not divisible by duration: %w", common.ErrInvalidArgument)
	}
	return new(big.Int).Div(deposit, duration), nil
}

// Create opens a new stream from sender to recipient and pulls the full
// deposit into custody. The deposit must divide the duration evenly so the
// per-second rate is integral and no dust is ever stranded.
func (e *Engine) Create(sender, recipient [20]byte, deposit *big.Int, token string, startTime, stopTime int64) (*Stream, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return nil, err
	}
	return e.create(sender, recipient, deposit, token, startTime, stopTime)
}

func (e *Engine) create(sender, recipient [20]byte, deposit *big.Int, token string, startTime, stopTime int64) (*Stream, error) {
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if common.IsZeroAddress(recipient) {
		return nil, fmt.Errorf("stream engine: recipient is the zero address: %w", common.ErrInvalidArgument)
	}
	if recipient == e.vault {
		return nil, fmt.Errorf("stream engine: recipient is the custody vault: %w", common.ErrInvalidArgument)
	}
	if recipient == sender {
		return nil, fmt.Errorf("stream engine: recipient equals sender: %w", common.ErrInvalidArgument)
	}
	rate, err := validateSchedule(deposit, startTime, stopTime, e.now())
	if err != nil {
		return nil, err
	}
	id, err := e.state.StreamNextID()
	if err != nil {
		return nil, err
	}
	s := &Stream{
		ID:               id,
		Sender:           sender,
		Recipient:        recipient,
		Token:            normalized,
		Deposit:          new(big.Int).Set(deposit),
		RatePerSecond:    rate,
		RemainingBalance: new(big.Int).Set(deposit),
		StartTime:        startTime,
		StopTime:         stopTime,
	}
	if err := e.state.StreamPut(s); err != nil {
		return nil, err
	}
	if err := common.Transfer(e.state, sender, e.vault, normalized, deposit); err != nil {
		if delErr := e.state.StreamDelete(id); delErr != nil {
			return nil, fmt.Errorf("stream engine: unwind after failed deposit pull: %v: %w", delErr, err)
		}
		return nil, err
	}
	e.emit(NewCreatedEvent(s))
	return s.Clone(), nil
}

// DeltaOf returns the elapsed streaming seconds: zero before the start,
// clamped at the full duration once the stop time passes.
func (e *Engine) DeltaOf(id uint64) (int64, error) {
	s, err := e.loadStream(id)
	if err != nil {
		return 0, err
	}
	now := e.now()
	if now <= s.StartTime {
		return 0, nil
	}
	if now >= s.StopTime {
		return s.StopTime - s.StartTime, nil
	}
	return now - s.StartTime, nil
}

// BalanceOf returns the amount currently owed to who. The recipient's share
// is the earned portion minus prior withdrawals, the sender's share is the
// unearned remainder; any other account holds nothing. The two shares always
// sum to the remaining balance.
func (e *Engine) BalanceOf(id uint64, who [20]byte) (*big.Int, error) {
	s, err := e.loadStream(id)
	if err != nil {
		return nil, err
	}
	recipientBalance := e.recipientBalance(s)
	switch who {
	case s.Recipient:
		return recipientBalance, nil
	case s.Sender:
		return new(big.Int).Sub(s.RemainingBalance, recipientBalance), nil
	default:
		return big.NewInt(0), nil
	}
}

func (e *Engine) recipientBalance(s *Stream) *big.Int {
	now := e.now()
	delta := int64(0)
	if now > s.StartTime {
		delta = now - s.StartTime
		if now >= s.StopTime {
			delta = s.StopTime - s.StartTime
		}
	}
	earned := new(big.Int).Mul(big.NewInt(delta), s.RatePerSecond)
	withdrawn := new(big.Int).Sub(s.Deposit, s.RemainingBalance)
	balance := earned.Sub(earned, withdrawn)
	if balance.Sign() < 0 {
		// Withdrawals never exceed the earned share, so a negative value can
		// only come from corrupted state.
		return big.NewInt(0)
	}
	return balance
}

// Withdraw pays out earned funds to the recipient. Either participant may
// trigger it, but the ceiling is always the recipient's earned share, and
// the recipient is always the beneficiary. Draining the stream removes it.
func (e *Engine) Withdraw(id uint64, caller [20]byte, amount *big.Int) error {
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
	s, err := e.loadStream(id)
	if err != nil {
		return err
	}
	if caller != s.Sender && caller != s.Recipient {
		return errNotParticipant
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("stream engine: withdrawal amount must be positive: %w", common.ErrInvalidArgument)
	}
	available := e.recipientBalance(s)
	if amount.Cmp(available) > 0 {
		return fmt.Errorf("stream engine: withdrawal exceeds earned balance: %w", common.ErrInvalidArgument)
	}
	prev := s.Clone()
	s.RemainingBalance = new(big.Int).Sub(s.RemainingBalance, amount)
	drained := s.RemainingBalance.Sign() == 0
	if drained {
		if err := e.state.StreamDelete(id); err != nil {
			return err
		}
	} else {
		if err := e.state.StreamPut(s); err != nil {
			return err
		}
	}
	if err := common.Transfer(e.state, e.vault, s.Recipient, s.Token, amount); err != nil {
		if putErr := e.state.StreamPut(prev); putErr != nil {
			return fmt.Errorf("stream engine: unwind after failed payout: %v: %w", putErr, err)
		}
		return err
	}
	e.emit(NewWithdrawnEvent(s, amount))
	return nil
}

// Cancel terminates the stream and settles both sides: the recipient gets
// the earned share, the sender gets the unearned remainder. Both payouts
// succeed or the stream and account balances are restored. Cancellation is
// deliberately not pause-gated so funds stay recoverable.
func (e *Engine) Cancel(id uint64, caller [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	release, err := e.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	s, err := e.loadStream(id)
	if err != nil {
		return err
	}
	if caller != s.Sender && caller != s.Recipient {
		return errNotParticipant
	}
	recipientBalance := e.recipientBalance(s)
	senderBalance := new(big.Int).Sub(s.RemainingBalance, recipientBalance)
	prev := s.Clone()
	if err := e.state.StreamDelete(id); err != nil {
		return err
	}
	restoreAccounts, err := common.SnapshotAccounts(e.state, e.vault, s.Sender, s.Recipient)
	if err != nil {
		return err
	}
	unwind := func(cause error) error {
		if restoreErr := restoreAccounts(); restoreErr != nil {
			return fmt.Errorf("stream engine: unwind cancel accounts: %v: %w", restoreErr, cause)
		}
		if putErr := e.state.StreamPut(prev); putErr != nil {
			return fmt.Errorf("stream engine: unwind cancel stream: %v: %w", putErr, cause)
		}
		return cause
	}
	if recipientBalance.Sign() > 0 {
		if err := common.Transfer(e.state, e.vault, s.Recipient, s.Token, recipientBalance); err != nil {
			return unwind(err)
		}
	}
	if senderBalance.Sign() > 0 {
		if err := common.Transfer(e.state, e.vault, s.Sender, s.Token, senderBalance); err != nil {
			return unwind(err)
		}
	}
	e.emit(NewCancelledEvent(prev, senderBalance, recipientBalance))
	return nil
}

// Request records a stream proposal. The caller becomes the recipient; the
// named sender decides later whether to fund it.
func (e *Engine) Request(recipient, sender [20]byte, deposit *big.Int, duration int64, token string) (*Request, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return nil, err
	}
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if common.IsZeroAddress(sender) {
		return nil, fmt.Errorf("stream engine: sender is the zero address: %w", common.ErrInvalidArgument)
	}
	if sender == recipient {
		return nil, fmt.Errorf("stream engine: sender equals recipient: %w", common.ErrInvalidArgument)
	}
	if common.IsZeroAddress(recipient) || recipient == e.vault {
		return nil, fmt.Errorf("stream engine: invalid recipient: %w", common.ErrInvalidArgument)
	}
	if deposit == nil || deposit.Sign() <= 0 {
		return nil, fmt.Errorf("stream engine: deposit must be positive: %w", common.ErrInvalidArgument)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("stream engine: duration must be positive: %w", common.ErrInvalidArgument)
	}
	if deposit.Cmp(big.NewInt(duration)) < 0 {
		return nil, fmt.Errorf("stream engine: deposit smaller than duration: %w", common.ErrInvalidArgument)
	}
	if new(big.Int).Mod(deposit, big.NewInt(duration)).Sign() != 0 {
		return nil, fmt.Errorf("stream engine: deposit not divisible by duration: %w", common.ErrInvalidArgument)
	}
	id, err := e.state.RequestNextID()
	if err != nil {
		return nil, err
	}
	r := &Request{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Token:     normalized,
		Deposit:   new(big.Int).Set(deposit),
		Duration:  duration,
		Status:    RequestPending,
		CreatedAt: e.now(),
	}
	if err := e.state.RequestPut(r); err != nil {
		return nil, err
	}
	e.emit(NewRequestCreatedEvent(r))
	return r.Clone(), nil
}

// AcceptRequest funds a pending proposal. Only the named sender may accept.
// The start time is fixed at acceptance, not proposal time; zero means "start
// now". The backing stream goes through the full Create invariants, pulling
// the deposit from the sender.
func (e *Engine) AcceptRequest(id uint64, caller [20]byte, startTime int64) (*Stream, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return nil, err
	}
	r, err := e.loadRequest(id)
	if err != nil {
		return nil, err
	}
	if r.Status.Terminal() {
		return nil, errRequestSettled
	}
	if caller != r.Sender {
		return nil, errNotRequestSender
	}
	now := e.now()
	if startTime == 0 {
		startTime = now
	}
	if startTime < now {
		return nil, fmt.Errorf("stream engine: start time before now: %w", common.ErrInvalidArgument)
	}
	restoreAccounts, err := common.SnapshotAccounts(e.state, r.Sender, e.vault)
	if err != nil {
		return nil, err
	}
	s, err := e.create(r.Sender, r.Recipient, r.Deposit, r.Token, startTime, startTime+r.Duration)
	if err != nil {
		return nil, err
	}
	r.Status = RequestAccepted
	r.StreamID = s.ID
	if err := e.state.RequestPut(r); err != nil {
		// The stream is live and funded; a request stuck at PENDING would let
		// the sender accept again and double-fund, so the whole acceptance
		// unwinds.
		if delErr := e.state.StreamDelete(s.ID); delErr != nil {
			return nil, fmt.Errorf("stream engine: unwind accepted stream: %v: %w", delErr, err)
		}
		if restoreErr := restoreAccounts(); restoreErr != nil {
			return nil, fmt.Errorf("stream engine: unwind accept accounts: %v: %w", restoreErr, err)
		}
		return nil, err
	}
	e.emit(NewRequestAcceptedEvent(r))
	return s, nil
}

// RejectRequest declines a pending proposal. Only the named sender may
// reject, and the request is terminal afterwards.
func (e *Engine) RejectRequest(id uint64, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return err
	}
	r, err := e.loadRequest(id)
	if err != nil {
		return err
	}
	if r.Status.Terminal() {
		return errRequestSettled
	}
	if caller != r.Sender {
		return errNotRequestSender
	}
	r.Status = RequestRejected
	if err := e.state.RequestPut(r); err != nil {
		return err
	}
	e.emit(NewRequestRejectedEvent(r))
	return nil
}

// GetStream returns a snapshot of a live stream.
func (e *Engine) GetStream(id uint64) (*Stream, error) {
	s, err := e.loadStream(id)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// GetRequest returns a snapshot of a stream request.
func (e *Engine) GetRequest(id uint64) (*Request, error) {
	r, err := e.loadRequest(id)
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}
