package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"podfin/native/auction"
	"podfin/native/common"
	"podfin/native/stream"
)

// Server exposes a read-only JSON surface over the engines. Mutations stay
// engine-side; the gateway never writes state.
type Server struct {
	streams  *stream.Engine
	auctions *auction.Engine
	logger   *slog.Logger
}

func NewServer(streams *stream.Engine, auctions *auction.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{streams: streams, auctions: auctions, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/streams/{id}", s.getStream)
		v1.Get("/streams/{id}/balance", s.getStreamBalance)
		v1.Get("/stream-requests/{id}", s.getStreamRequest)
		v1.Get("/auctions/{id}", s.getAuction)
		v1.Get("/auctions/{id}/shares/{account}", s.getSharingShare)
	})
	return r
}

type streamPayload struct {
	ID               uint64 `json:"id"`
	Sender           string `json:"sender"`
	Recipient        string `json:"recipient"`
	Token            string `json:"token"`
	Deposit          string `json:"deposit"`
	RatePerSecond    string `json:"ratePerSecond"`
	RemainingBalance string `json:"remainingBalance"`
	StartTime        int64  `json:"startTime"`
	StopTime         int64  `json:"stopTime"`
}

type requestPayload struct {
	ID        uint64 `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Token     string `json:"token"`
	Deposit   string `json:"deposit"`
	Duration  int64  `json:"duration"`
	Status    string `json:"status"`
	StreamID  uint64 `json:"streamId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type auctionPayload struct {
	ID              uint64 `json:"id"`
	Creator         string `json:"creator"`
	Token           string `json:"token"`
	VerifiedArtist  string `json:"verifiedArtist,omitempty"`
	Depositor       string `json:"depositor,omitempty"`
	CreatorShare    string `json:"creatorShare"`
	SharingShare    string `json:"sharingShare"`
	FeePercent      string `json:"feePercent"`
	StartTime       int64  `json:"startTime"`
	BidEndTime      int64  `json:"bidEndTime"`
	ClaimEndTime    int64  `json:"claimEndTime"`
	LastHighDeposit string `json:"lastHighDeposit"`
	Status          string `json:"status"`
}

func (s *Server) getStream(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	st, err := s.streams.GetStream(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, streamPayload{
		ID:               st.ID,
		Sender:           hexAddr(st.Sender),
		Recipient:        hexAddr(st.Recipient),
		Token:            st.Token,
		Deposit:          st.Deposit.String(),
		RatePerSecond:    st.RatePerSecond.String(),
		RemainingBalance: st.RemainingBalance.String(),
		StartTime:        st.StartTime,
		StopTime:         st.StopTime,
	})
}

func (s *Server) getStreamBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	account, err := parseAddress(r.URL.Query().Get("account"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	balance, err := s.streams.BalanceOf(id, account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"account": hexAddr(account),
		"balance": balance.String(),
	})
}

func (s *Server) getStreamRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	req, err := s.streams.GetRequest(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requestPayload{
		ID:        req.ID,
		Sender:    hexAddr(req.Sender),
		Recipient: hexAddr(req.Recipient),
		Token:     req.Token,
		Deposit:   req.Deposit.String(),
		Duration:  req.Duration,
		Status:    req.Status.String(),
		StreamID:  req.StreamID,
		CreatedAt: req.CreatedAt,
	})
}

func (s *Server) getAuction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	a, err := s.auctions.GetAuction(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	payload := auctionPayload{
		ID:              a.ID,
		Creator:         hexAddr(a.Creator),
		Token:           a.Token,
		CreatorShare:    a.CreatorShare.String(),
		SharingShare:    a.SharingShare.String(),
		FeePercent:      a.FeePercent.String(),
		StartTime:       a.StartTime,
		BidEndTime:      a.BidEndTime,
		ClaimEndTime:    a.ClaimEndTime,
		LastHighDeposit: a.LastHighDeposit.String(),
		Status:          a.Status.String(),
	}
	if !common.IsZeroAddress(a.VerifiedArtist) {
		payload.VerifiedArtist = hexAddr(a.VerifiedArtist)
	}
	if !common.IsZeroAddress(a.Depositor) {
		payload.Depositor = hexAddr(a.Depositor)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) getSharingShare(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	account, err := parseAddress(chi.URLParam(r, "account"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	owed, err := s.auctions.SharingShare(id, account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"account": hexAddr(account),
		"owed":    owed.String(),
	})
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return id, nil
}

var (
	errBadID      = errors.New("gateway: id must be a positive integer")
	errBadAddress = errors.New("gateway: account must be a 20-byte hex address")
)

func parseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil || len(decoded) != len(addr) {
		return addr, errBadAddress
	}
	copy(addr[:], decoded)
	return addr, nil
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidArgument), errors.Is(err, errBadID),
		errors.Is(err, errBadAddress):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrInvalidState), errors.Is(err, common.ErrModulePaused):
		status = http.StatusConflict
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("gateway request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
