package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type hashRequest struct {
	Plaintext string `json:"plaintext" validate:"required,max=1024"`
	Cost      int    `json:"cost" validate:"min=0"`
}

type hashResponse struct {
	Hash string `json:"hash"`
}

// verifyRequest leaves plaintext and hash optional: an empty or malformed
// hash is a mismatch, not a client error.
type verifyRequest struct {
	Plaintext string `json:"plaintext" validate:"max=1024"`
	Hash      string `json:"hash" validate:"max=512"`
	Upgrade   bool   `json:"upgrade"`
}

type verifyResponse struct {
	Match    bool   `json:"match"`
	Rehashed string `json:"rehashed,omitempty"`
}

type inspectRequest struct {
	Hash string `json:"hash" validate:"required,max=512"`
}

type inspectResponse struct {
	Driver      string         `json:"driver"`
	Params      map[string]any `json:"params"`
	NeedsRehash bool           `json:"needs_rehash"`
}

func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return &apiError{status: http.StatusRequestEntityTooLarge, code: "too_large", message: "request body too large", cause: err}
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty", err)
		default:
			return badRequest("request body is not valid JSON", err)
		}
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object", nil)
	}
	return s.validator.Validate(dst)
}

func (s *Server) hash(r *http.Request) (any, int, error) {
	var req hashRequest
	if err := s.decode(r, &req); err != nil {
		return nil, 0, err
	}
	h, err := s.svc.Hash(r.Context(), req.Plaintext, req.Cost)
	if err != nil {
		return nil, 0, err
	}
	return hashResponse{Hash: h}, http.StatusCreated, nil
}

func (s *Server) verify(r *http.Request) (any, int, error) {
	var req verifyRequest
	if err := s.decode(r, &req); err != nil {
		return nil, 0, err
	}
	if req.Upgrade {
		match, rehashed, err := s.svc.VerifyAndRehash(r.Context(), req.Plaintext, req.Hash)
		if err != nil {
			return nil, 0, err
		}
		return verifyResponse{Match: match, Rehashed: rehashed}, http.StatusOK, nil
	}
	match, err := s.svc.Verify(r.Context(), req.Plaintext, req.Hash)
	if err != nil {
		return nil, 0, err
	}
	return verifyResponse{Match: match}, http.StatusOK, nil
}

func (s *Server) inspect(r *http.Request) (any, int, error) {
	var req inspectRequest
	if err := s.decode(r, &req); err != nil {
		return nil, 0, err
	}
	in, err := s.svc.Inspect(r.Context(), req.Hash)
	if err != nil {
		return nil, 0, err
	}
	return inspectResponse{
		Driver:      string(in.Info.Driver),
		Params:      in.Info.Params,
		NeedsRehash: in.NeedsRehash,
	}, http.StatusOK, nil
}

func (s *Server) health(*http.Request) (any, int, error) {
	return map[string]string{"status": "ok"}, http.StatusOK, nil
}
