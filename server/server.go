// Package server exposes the proof gateway over HTTP: off-chain resolvers
// POST a record locator and get back a verifier-ready proof bundle.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/colorfulnotion/l2proof/prooferrors"
	"github.com/colorfulnotion/l2proof/types"
	"github.com/colorfulnotion/l2proof/verify"
)

// BundleSource assembles proof bundles; the gateway Assembler in production.
type BundleSource interface {
	AssembleProof(ctx context.Context, locator types.RecordLocator) (*types.ProofBundle, error)
}

type Server struct {
	source   BundleSource
	resolver common.Address
	baseSlot uint8
	timeout  time.Duration
	logger   log.Logger
	http     *http.Server
}

func New(source BundleSource, resolver common.Address, baseSlot uint8, timeout time.Duration) *Server {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		source:   source,
		resolver: resolver,
		baseSlot: baseSlot,
		timeout:  timeout,
		logger:   log.New("module", "server"),
	}
}

type proofRequest struct {
	Contract string `json:"contract"`
	Node     string `json:"node"`
	Key      string `json:"key"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, prooferrors.ErrEmptySlotUnsupported):
		return http.StatusNotFound
	case errors.Is(err, prooferrors.ErrStateRootNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, prooferrors.ErrTrieProofQueryFailed),
		errors.Is(err, prooferrors.ErrIncompleteLongValueProof):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("POST only"))
		return
	}
	var req proofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Key == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("key is required"))
		return
	}
	contract := s.resolver
	if req.Contract != "" {
		if !common.IsHexAddress(req.Contract) {
			s.writeError(w, http.StatusBadRequest, errors.New("contract is not an address"))
			return
		}
		contract = common.HexToAddress(req.Contract)
	}

	locator := types.RecordLocator{
		Contract:  contract,
		Node:      common.HexToHash(req.Node),
		RecordKey: req.Key,
		BaseSlot:  s.baseSlot,
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	bundle, err := s.source.AssembleProof(ctx, locator)
	if err != nil {
		s.logger.Warn("proof assembly failed", "record", locator.String(), "err", err)
		s.writeError(w, statusFor(err), err)
		return
	}
	if _, err := verify.Bundle(bundle); err != nil {
		// The node handed us evidence that does not verify locally. Never
		// serve it.
		s.logger.Error("assembled bundle failed local verification", "record", locator.String(), "err", err)
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bundle); err != nil {
		s.logger.Warn("response write failed", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Handler returns the routed HTTP handler; exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/proof", s.handleProof)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.Handler()}
	s.logger.Info("gateway listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
