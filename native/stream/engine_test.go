package stream

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"podfin/core/events"
	"podfin/core/types"
	"podfin/native/common"
)

type mockState struct {
	streams       map[uint64]*Stream
	requests      map[uint64]*Request
	accounts      map[[20]byte]*types.Account
	streamSeq     uint64
	requestSeq    uint64
	requestPutErr error
}

func newMockState() *mockState {
	return &mockState{
		streams:  make(map[uint64]*Stream),
		requests: make(map[uint64]*Request),
		accounts: make(map[[20]byte]*types.Account),
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func (m *mockState) StreamPut(s *Stream) error {
	sanitized, err := SanitizeStream(s)
	if err != nil {
		return err
	}
	m.streams[sanitized.ID] = sanitized.Clone()
	return nil
}

func (m *mockState) StreamGet(id uint64) (*Stream, bool, error) {
	s, ok := m.streams[id]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *mockState) StreamDelete(id uint64) error {
	if _, ok := m.streams[id]; !ok {
		return fmt.Errorf("stream %d not stored", id)
	}
	delete(m.streams, id)
	return nil
}

func (m *mockState) StreamNextID() (uint64, error) {
	m.streamSeq++
	return m.streamSeq, nil
}

func (m *mockState) RequestPut(r *Request) error {
	if m.requestPutErr != nil {
		return m.requestPutErr
	}
	sanitized, err := SanitizeRequest(r)
	if err != nil {
		return err
	}
	m.requests[sanitized.ID] = sanitized.Clone()
	return nil
}

func (m *mockState) RequestGet(id uint64) (*Request, bool, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, false, nil
	}
	return r.Clone(), true, nil
}

func (m *mockState) RequestNextID() (uint64, error) {
	m.requestSeq++
	return m.requestSeq, nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	var key [20]byte
	copy(key[:], addr)
	if acc, ok := m.accounts[key]; ok {
		return acc.Clone(), nil
	}
	return types.NewAccount(), nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	var key [20]byte
	copy(key[:], addr)
	m.accounts[key] = account.Clone()
	return nil
}

func (m *mockState) setBalance(addr [20]byte, amount int64) {
	acc := types.NewAccount()
	acc.BalancePOD = big.NewInt(amount)
	m.accounts[addr] = acc
}

func (m *mockState) balance(addr [20]byte) string {
	if acc, ok := m.accounts[addr]; ok && acc.BalancePOD != nil {
		return acc.BalancePOD.String()
	}
	return "0"
}

type stubPauser struct {
	paused map[string]bool
}

func (p *stubPauser) IsPaused(module string) bool { return p.paused[module] }

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func (c *capturingEmitter) lastType() string {
	if len(c.events) == 0 {
		return ""
	}
	return c.events[len(c.events)-1].EventType()
}

var (
	vaultAddr = newTestAddress(0xAA)
	baseTime  = int64(1_700_000_000)
)

func newTestEngine(state *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetVault(vaultAddr)
	engine.SetNowFunc(func() int64 { return baseTime })
	return engine
}

func mustCreateStream(t *testing.T, engine *Engine, state *mockState, sender, recipient [20]byte, deposit int64, duration int64) *Stream {
	t.Helper()
	state.setBalance(sender, deposit)
	s, err := engine.Create(sender, recipient, big.NewInt(deposit), "POD", baseTime, baseTime+duration)
	if err != nil {
		t.Fatalf("create stream: %v", err)
	}
	return s
}

func TestCreateValidations(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	state.setBalance(sender, 1_000_000)

	cases := []struct {
		name      string
		recipient [20]byte
		deposit   *big.Int
		token     string
		start     int64
		stop      int64
	}{
		{"zero recipient", [20]byte{}, big.NewInt(1000), "POD", baseTime, baseTime + 100},
		{"vault recipient", vaultAddr, big.NewInt(1000), "POD", baseTime, baseTime + 100},
		{"self stream", sender, big.NewInt(1000), "POD", baseTime, baseTime + 100},
		{"zero deposit", recipient, big.NewInt(0), "POD", baseTime, baseTime + 100},
		{"nil deposit", recipient, nil, "POD", baseTime, baseTime + 100},
		{"start in past", recipient, big.NewInt(1000), "POD", baseTime - 1, baseTime + 100},
		{"stop before start", recipient, big.NewInt(1000), "POD", baseTime + 100, baseTime + 100},
		{"deposit below duration", recipient, big.NewInt(50), "POD", baseTime, baseTime + 100},
		{"deposit not divisible", recipient, big.NewInt(150), "POD", baseTime, baseTime + 100},
		{"unknown token", recipient, big.NewInt(1000), "DOGE", baseTime, baseTime + 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Create(sender, tc.recipient, tc.deposit, tc.token, tc.start, tc.stop)
			if !errors.Is(err, common.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
	if len(state.streams) != 0 {
		t.Fatalf("no stream should be stored after failed creates")
	}
}

func TestCreatePullsDepositIntoCustody(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)

	s := mustCreateStream(t, engine, state, sender, recipient, 1_000_000, 10_000)
	if s.ID != 1 {
		t.Fatalf("expected first stream id 1, got %d", s.ID)
	}
	if s.RatePerSecond.String() != "100" {
		t.Fatalf("expected rate 100/sec, got %s", s.RatePerSecond)
	}
	if got := state.balance(sender); got != "0" {
		t.Fatalf("expected sender drained, got %s", got)
	}
	if got := state.balance(vaultAddr); got != "1000000" {
		t.Fatalf("expected vault funded, got %s", got)
	}
	if emitter.lastType() != EventTypeStreamCreated {
		t.Fatalf("expected creation event, got %s", emitter.lastType())
	}

	second := mustCreateStream(t, engine, state, newTestAddress(0x03), recipient, 500, 500)
	if second.ID != 2 {
		t.Fatalf("expected monotonic ids, got %d", second.ID)
	}
}

func TestCreateUnwindsWhenPullFails(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	state.setBalance(sender, 10) // cannot cover the deposit

	_, err := engine.Create(sender, recipient, big.NewInt(1000), "POD", baseTime, baseTime+100)
	if !errors.Is(err, common.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	if len(state.streams) != 0 {
		t.Fatalf("failed create must not leave a stream behind")
	}
	if got := state.balance(sender); got != "10" {
		t.Fatalf("sender balance must be untouched, got %s", got)
	}
}

func TestBalanceSplitTracksElapsedTime(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	s := mustCreateStream(t, engine, state, sender, recipient, 1_000_000, 10_000)

	halfway := baseTime + 5_000
	engine.SetNowFunc(func() int64 { return halfway })

	delta, err := engine.DeltaOf(s.ID)
	if err != nil {
		t.Fatalf("delta: %v", err)
	}
	if delta != 5_000 {
		t.Fatalf("expected delta 5000, got %d", delta)
	}
	recipientBal, err := engine.BalanceOf(s.ID, recipient)
	if err != nil {
		t.Fatalf("balance recipient: %v", err)
	}
	if recipientBal.String() != "500000" {
		t.Fatalf("expected recipient balance 500000, got %s", recipientBal)
	}
	senderBal, err := engine.BalanceOf(s.ID, sender)
	if err != nil {
		t.Fatalf("balance sender: %v", err)
	}
	if senderBal.String() != "500000" {
		t.Fatalf("expected sender balance 500000, got %s", senderBal)
	}
	stranger, err := engine.BalanceOf(s.ID, newTestAddress(0x99))
	if err != nil {
		t.Fatalf("balance stranger: %v", err)
	}
	if stranger.Sign() != 0 {
		t.Fatalf("expected zero balance for stranger, got %s", stranger)
	}

	// Both shares always sum to the remaining balance.
	sum := new(big.Int).Add(recipientBal, senderBal)
	stored, _, _ := state.StreamGet(s.ID)
	if sum.Cmp(stored.RemainingBalance) != 0 {
		t.Fatalf("sender + recipient = %s, want remaining %s", sum, stored.RemainingBalance)
	}
}

func TestDeltaClampsAtStopTime(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	s := mustCreateStream(t, engine, state, newTestAddress(0x01), newTestAddress(0x02), 1_000, 1_000)

	engine.SetNowFunc(func() int64 { return baseTime - 100 })
	if delta, _ := engine.DeltaOf(s.ID); delta != 0 {
		t.Fatalf("expected zero delta before start, got %d", delta)
	}
	engine.SetNowFunc(func() int64 { return baseTime + 5_000 })
	if delta, _ := engine.DeltaOf(s.ID); delta != 1_000 {
		t.Fatalf("expected delta clamped at duration, got %d", delta)
	}
}

func TestWithdrawPartialAndFull(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	s := mustCreateStream(t, engine, state, sender, recipient, 1_000_000, 10_000)

	engine.SetNowFunc(func() int64 { return baseTime + 5_000 })
	if err := engine.Withdraw(s.ID, recipient, big.NewInt(500_000)); err != nil {
		t.Fatalf("withdraw half: %v", err)
	}
	stored, ok, _ := state.StreamGet(s.ID)
	if !ok {
		t.Fatalf("stream must survive a partial withdrawal")
	}
	if stored.RemainingBalance.String() != "500000" {
		t.Fatalf("expected remaining 500000, got %s", stored.RemainingBalance)
	}
	if got := state.balance(recipient); got != "500000" {
		t.Fatalf("expected recipient credited, got %s", got)
	}
	if emitter.lastType() != EventTypeStreamWithdrawn {
		t.Fatalf("expected withdrawal event, got %s", emitter.lastType())
	}

	engine.SetNowFunc(func() int64 { return baseTime + 10_000 })
	if err := engine.Withdraw(s.ID, recipient, big.NewInt(500_000)); err != nil {
		t.Fatalf("withdraw rest: %v", err)
	}
	if _, err := engine.GetStream(s.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("drained stream must be gone, got %v", err)
	}
	if got := state.balance(recipient); got != "1000000" {
		t.Fatalf("expected recipient fully paid, got %s", got)
	}
	if got := state.balance(vaultAddr); got != "0" {
		t.Fatalf("expected vault emptied, got %s", got)
	}
}

func TestWithdrawCapsAtEarnedBalance(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	s := mustCreateStream(t, engine, state, sender, recipient, 1_000_000, 10_000)

	engine.SetNowFunc(func() int64 { return baseTime + 1_000 })
	if err := engine.Withdraw(s.ID, recipient, big.NewInt(100_001)); !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("expected cap at earned share, got %v", err)
	}
	// The sender may trigger a withdrawal, but the recipient stays the
	// beneficiary and the same ceiling applies.
	if err := engine.Withdraw(s.ID, sender, big.NewInt(100_000)); err != nil {
		t.Fatalf("withdraw by sender: %v", err)
	}
	if got := state.balance(recipient); got != "100000" {
		t.Fatalf("expected recipient paid, got %s", got)
	}
	if err := engine.Withdraw(s.ID, newTestAddress(0x99), big.NewInt(1)); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected unauthorized stranger, got %v", err)
	}
	if err := engine.Withdraw(s.ID, recipient, big.NewInt(0)); !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("expected zero amount rejection, got %v", err)
	}
}

func TestCancelSettlesBothSides(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	s := mustCreateStream(t, engine, state, sender, recipient, 1_000_000, 10_000)

	engine.SetNowFunc(func() int64 { return baseTime + 2_500 })
	if err := engine.Cancel(s.ID, sender); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := state.balance(recipient); got != "250000" {
		t.Fatalf("expected recipient settled 250000, got %s", got)
	}
	if got := state.balance(sender); got != "750000" {
		t.Fatalf("expected sender refunded 750000, got %s", got)
	}
	if got := state.balance(vaultAddr); got != "0" {
		t.Fatalf("expected vault emptied, got %s", got)
	}
	if _, err := engine.GetStream(s.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("cancelled stream must be gone, got %v", err)
	}
	if emitter.lastType() != EventTypeStreamCancelled {
		t.Fatalf("expected cancellation event, got %s", emitter.lastType())
	}
}

func TestCancelUnwindsWhenPayoutFails(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	s := mustCreateStream(t, engine, state, sender, recipient, 1_000_000, 10_000)

	// Vault drained behind the engine's back: the payouts cannot settle.
	state.setBalance(vaultAddr, 0)
	engine.SetNowFunc(func() int64 { return baseTime + 2_500 })
	if err := engine.Cancel(s.ID, sender); !errors.Is(err, common.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	stored, ok, _ := state.StreamGet(s.ID)
	if !ok {
		t.Fatalf("failed cancel must restore the stream")
	}
	if stored.RemainingBalance.String() != "1000000" {
		t.Fatalf("expected remaining balance restored, got %s", stored.RemainingBalance)
	}
	if got := state.balance(recipient); got != "0" {
		t.Fatalf("expected no partial payout, got %s", got)
	}
}

func TestPauseGatesCreateAndWithdrawButNotCancel(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	s := mustCreateStream(t, engine, state, sender, recipient, 1_000_000, 10_000)

	engine.SetPauser(&stubPauser{paused: map[string]bool{ModuleName: true}})
	state.setBalance(sender, 1_000)
	if _, err := engine.Create(sender, recipient, big.NewInt(1_000), "POD", baseTime, baseTime+100); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected paused create, got %v", err)
	}
	engine.SetNowFunc(func() int64 { return baseTime + 5_000 })
	if err := engine.Withdraw(s.ID, recipient, big.NewInt(1)); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected paused withdraw, got %v", err)
	}
	if err := engine.Cancel(s.ID, recipient); err != nil {
		t.Fatalf("cancel must stay available while paused: %v", err)
	}
}

func TestReentrantEntryRejected(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	s := mustCreateStream(t, engine, state, sender, recipient, 1_000_000, 10_000)

	release, err := engine.lock.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()
	engine.SetNowFunc(func() int64 { return baseTime + 5_000 })
	if err := engine.Withdraw(s.ID, recipient, big.NewInt(1)); !errors.Is(err, common.ErrReentrantCall) {
		t.Fatalf("expected reentrancy rejection, got %v", err)
	}
	if err := engine.Cancel(s.ID, recipient); !errors.Is(err, common.ErrReentrantCall) {
		t.Fatalf("expected reentrancy rejection, got %v", err)
	}
}

func TestRequestLifecycle(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)

	r, err := engine.Request(recipient, sender, big.NewInt(500_000), 5_000, "POD")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if r.ID != 1 || r.Status != RequestPending {
		t.Fatalf("unexpected request %+v", r)
	}
	if emitter.lastType() != EventTypeRequestCreated {
		t.Fatalf("expected request event, got %s", emitter.lastType())
	}

	// Only the named sender decides.
	if _, err := engine.AcceptRequest(r.ID, recipient, 0); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected unauthorized accept, got %v", err)
	}
	if err := engine.RejectRequest(r.ID, recipient); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected unauthorized reject, got %v", err)
	}

	state.setBalance(sender, 500_000)
	acceptAt := baseTime + 100
	engine.SetNowFunc(func() int64 { return acceptAt })
	s, err := engine.AcceptRequest(r.ID, sender, 0)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if s.StartTime != acceptAt || s.StopTime != acceptAt+5_000 {
		t.Fatalf("expected window re-derived at acceptance, got [%d, %d]", s.StartTime, s.StopTime)
	}
	if got := state.balance(vaultAddr); got != "500000" {
		t.Fatalf("expected deposit pulled on accept, got %s", got)
	}
	stored, _ := engine.GetRequest(r.ID)
	if stored.Status != RequestAccepted || stored.StreamID != s.ID {
		t.Fatalf("expected accepted request linked to stream, got %+v", stored)
	}

	// Terminal: no further transitions.
	if _, err := engine.AcceptRequest(r.ID, sender, 0); !errors.Is(err, common.ErrInvalidState) {
		t.Fatalf("expected settled request, got %v", err)
	}
	if err := engine.RejectRequest(r.ID, sender); !errors.Is(err, common.ErrInvalidState) {
		t.Fatalf("expected settled request, got %v", err)
	}
}

func TestRejectRequest(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)

	r, err := engine.Request(recipient, sender, big.NewInt(1_000), 100, "POD")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := engine.RejectRequest(r.ID, sender); err != nil {
		t.Fatalf("reject: %v", err)
	}
	stored, _ := engine.GetRequest(r.ID)
	if stored.Status != RequestRejected {
		t.Fatalf("expected rejected status, got %v", stored.Status)
	}
	if _, err := engine.AcceptRequest(r.ID, sender, 0); !errors.Is(err, common.ErrInvalidState) {
		t.Fatalf("expected terminal request, got %v", err)
	}
}

func TestRequestValidations(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)

	cases := []struct {
		name     string
		sender   [20]byte
		deposit  *big.Int
		duration int64
	}{
		{"zero sender", [20]byte{}, big.NewInt(1_000), 100},
		{"self request", recipient, big.NewInt(1_000), 100},
		{"zero deposit", sender, big.NewInt(0), 100},
		{"zero duration", sender, big.NewInt(1_000), 0},
		{"deposit below duration", sender, big.NewInt(50), 100},
		{"deposit not divisible", sender, big.NewInt(150), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Request(recipient, tc.sender, tc.deposit, tc.duration, "POD"); !errors.Is(err, common.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestAcceptRequestUnwindsWhenSenderUnfunded(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)

	r, err := engine.Request(recipient, sender, big.NewInt(500_000), 5_000, "POD")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := engine.AcceptRequest(r.ID, sender, 0); !errors.Is(err, common.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	stored, _ := engine.GetRequest(r.ID)
	if stored.Status != RequestPending {
		t.Fatalf("failed accept must leave the request pending, got %v", stored.Status)
	}
	if len(state.streams) != 0 {
		t.Fatalf("failed accept must not leave a stream behind")
	}
}

func TestAcceptRequestUnwindsWhenRequestWriteFails(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	sender := newTestAddress(0x01)
	recipient := newTestAddress(0x02)
	state.setBalance(sender, 500_000)

	r, err := engine.Request(recipient, sender, big.NewInt(500_000), 5_000, "POD")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	state.requestPutErr = errors.New("disk full")
	if _, err := engine.AcceptRequest(r.ID, sender, 0); err == nil {
		t.Fatalf("expected failed accept")
	}
	// The deposit pull and the backing stream both roll back: a request left
	// at PENDING must not coexist with a live funded stream, or a second
	// accept would pull the deposit twice.
	if got := state.balance(sender); got != "500000" {
		t.Fatalf("expected deposit restored to sender, got %s", got)
	}
	if got := state.balance(vaultAddr); got != "0" {
		t.Fatalf("expected empty custody, got %s", got)
	}
	if len(state.streams) != 0 {
		t.Fatalf("failed accept must not leave a stream behind")
	}
	stored, _ := engine.GetRequest(r.ID)
	if stored.Status != RequestPending {
		t.Fatalf("failed accept must leave the request pending, got %v", stored.Status)
	}

	state.requestPutErr = nil
	s, err := engine.AcceptRequest(r.ID, sender, 0)
	if err != nil {
		t.Fatalf("accept after recovery: %v", err)
	}
	if got := state.balance(vaultAddr); got != "500000" {
		t.Fatalf("expected deposit in custody after recovery, got %s", got)
	}
	stored, _ = engine.GetRequest(r.ID)
	if stored.Status != RequestAccepted || stored.StreamID != s.ID {
		t.Fatalf("expected accepted request linked to stream %d, got %+v", s.ID, stored)
	}
}

func TestGetStreamNotFound(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	if _, err := engine.GetStream(42); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := engine.BalanceOf(42, newTestAddress(0x01)); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
