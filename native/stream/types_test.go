package stream

import (
	"errors"
	"math/big"
	"testing"

	"podfin/native/common"
)

func validStream() *Stream {
	return &Stream{
		ID:               1,
		Sender:           newTestAddress(0x01),
		Recipient:        newTestAddress(0x02),
		Token:            "pod",
		Deposit:          big.NewInt(1_000_000),
		RatePerSecond:    big.NewInt(100),
		RemainingBalance: big.NewInt(1_000_000),
		StartTime:        baseTime,
		StopTime:         baseTime + 10_000,
	}
}

func TestSanitizeStream(t *testing.T) {
	s, err := SanitizeStream(validStream())
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if s.Token != "POD" {
		t.Fatalf("expected normalized token, got %q", s.Token)
	}

	cases := []struct {
		name   string
		mutate func(*Stream)
	}{
		{"zero id", func(s *Stream) { s.ID = 0 }},
		{"nil deposit", func(s *Stream) { s.Deposit = nil }},
		{"negative rate", func(s *Stream) { s.RatePerSecond = big.NewInt(-1) }},
		{"remaining above deposit", func(s *Stream) { s.RemainingBalance = big.NewInt(1_000_001) }},
		{"negative remaining", func(s *Stream) { s.RemainingBalance = big.NewInt(-1) }},
		{"stop before start", func(s *Stream) { s.StopTime = s.StartTime }},
		{"unknown token", func(s *Stream) { s.Token = "BTC" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validStream()
			tc.mutate(s)
			if _, err := SanitizeStream(s); !errors.Is(err, common.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestSanitizeRequest(t *testing.T) {
	valid := func() *Request {
		return &Request{
			ID:        1,
			Sender:    newTestAddress(0x01),
			Recipient: newTestAddress(0x02),
			Token:     "zpod",
			Deposit:   big.NewInt(50_000),
			Duration:  5_000,
			Status:    RequestPending,
			CreatedAt: baseTime,
		}
	}
	r, err := SanitizeRequest(valid())
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if r.Token != "ZPOD" {
		t.Fatalf("expected normalized token, got %q", r.Token)
	}

	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"zero id", func(r *Request) { r.ID = 0 }},
		{"zero deposit", func(r *Request) { r.Deposit = big.NewInt(0) }},
		{"zero duration", func(r *Request) { r.Duration = 0 }},
		{"bad status", func(r *Request) { r.Status = RequestStatus(9) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid()
			tc.mutate(r)
			if _, err := SanitizeRequest(r); !errors.Is(err, common.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestStreamCloneIsDeep(t *testing.T) {
	s := validStream()
	clone := s.Clone()
	clone.RemainingBalance.Sub(clone.RemainingBalance, big.NewInt(1))
	if s.RemainingBalance.String() != "1000000" {
		t.Fatalf("clone aliased the original balance")
	}
}
