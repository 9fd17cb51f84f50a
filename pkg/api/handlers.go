package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/accounts"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/escrow"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/service"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 64 * 1024

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, escrow.ErrSizeMismatch), errors.Is(err, escrow.ErrInvalidAccountData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, accounts.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounts.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, accounts.ErrInvalidSize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail records a failed operation and writes the mapped error
func (s *Server) fail(w http.ResponseWriter, op string, start time.Time, err error) {
	s.metrics.RecordOperation(op, false, time.Since(start))

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("escrow operation failed", zap.String("operation", op), zap.Error(err))
	}
	sendError(w, err.Error(), status)
}

// addressParam parses the {address} URL parameter
func addressParam(r *http.Request) (escrow.Pubkey, error) {
	return escrow.ParsePubkey(chi.URLParam(r, "address"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, LayoutResponse{Size: escrow.ExpectedSize(), Fields: escrow.Layout()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, s.service.Stats())
}

func (s *Server) handleMake(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req MakeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.metrics.RecordOperation("make", false, time.Since(start))
		sendError(w, "Invalid JSON request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if missing := req.missing(); len(missing) > 0 {
		s.metrics.RecordOperation("make", false, time.Since(start))
		sendError(w, "missing required fields: "+strings.Join(missing, ", "), http.StatusBadRequest)
		return
	}

	result, err := s.service.Make(r.Context(), req.params())
	if err != nil {
		s.fail(w, "make", start, err)
		return
	}

	s.metrics.RecordOperation("make", true, time.Since(start))
	sendJSON(w, http.StatusCreated, MutationResponse{
		OpID:   result.OpID,
		Escrow: newEscrowResponse(result.Account),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	addr, err := addressParam(r)
	if err != nil {
		s.metrics.RecordOperation("get", false, time.Since(start))
		sendError(w, "Invalid address: "+err.Error(), http.StatusBadRequest)
		return
	}

	account, err := s.service.Get(r.Context(), addr)
	if err != nil {
		s.fail(w, "get", start, err)
		return
	}

	s.metrics.RecordOperation("get", true, time.Since(start))
	sendSuccess(w, newEscrowResponse(*account))
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	addr, err := addressParam(r)
	if err != nil {
		s.metrics.RecordOperation("raw", false, time.Since(start))
		sendError(w, "Invalid address: "+err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.service.Raw(r.Context(), addr)
	if err != nil {
		s.fail(w, "raw", start, err)
		return
	}

	s.metrics.RecordOperation("raw", true, time.Since(start))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	addr, err := addressParam(r)
	if err != nil {
		s.metrics.RecordOperation("update", false, time.Since(start))
		sendError(w, "Invalid address: "+err.Error(), http.StatusBadRequest)
		return
	}

	var req PatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.metrics.RecordOperation("update", false, time.Since(start))
		sendError(w, "Invalid JSON request: "+err.Error(), http.StatusBadRequest)
		return
	}
	patch := req.patch()
	if patch.IsEmpty() {
		s.metrics.RecordOperation("update", false, time.Since(start))
		sendError(w, "at least one field is required", http.StatusBadRequest)
		return
	}

	result, err := s.service.Update(r.Context(), addr, patch)
	if err != nil {
		s.fail(w, "update", start, err)
		return
	}

	s.metrics.RecordOperation("update", true, time.Since(start))
	sendSuccess(w, MutationResponse{
		OpID:   result.OpID,
		Escrow: newEscrowResponse(result.Account),
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	addr, err := addressParam(r)
	if err != nil {
		s.metrics.RecordOperation("close", false, time.Since(start))
		sendError(w, "Invalid address: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.service.Close(r.Context(), addr)
	if err != nil {
		s.fail(w, "close", start, err)
		return
	}

	s.metrics.RecordOperation("close", true, time.Since(start))
	sendSuccess(w, MutationResponse{
		OpID:   result.OpID,
		Escrow: newEscrowResponse(result.Account),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var filter service.Filter
	query := r.URL.Query()
	for name, dst := range map[string]**escrow.Pubkey{
		"maker":  &filter.Maker,
		"mint_a": &filter.MintA,
		"mint_b": &filter.MintB,
	} {
		value := query.Get(name)
		if value == "" {
			continue
		}
		pk, err := escrow.ParsePubkey(value)
		if err != nil {
			s.metrics.RecordOperation("list", false, time.Since(start))
			sendError(w, "Invalid "+name+": "+err.Error(), http.StatusBadRequest)
			return
		}
		*dst = &pk
	}

	list, err := s.service.List(r.Context(), filter)
	if err != nil {
		s.fail(w, "list", start, err)
		return
	}

	out := make([]EscrowResponse, len(list))
	for i, a := range list {
		out[i] = newEscrowResponse(a)
	}

	s.metrics.RecordOperation("list", true, time.Since(start))
	sendSuccess(w, out)
}
