package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"elementstore/internal/graphstoreerr"
	"elementstore/internal/middleware"
	"elementstore/operation"
)

// Handler adapts operation.Execute to net/http, framing requests/responses
// as JSON and mapping graphstoreerr.Kind to the HTTP status spec §7 implies
// for each (fatal-at-init kinds never reach here; CodecError is handled
// internally by the writer, not surfaced per-request).
type Handler struct {
	env    *operation.Environment
	logger *zap.Logger
}

// errorResponse is the standardized error body, grounded on the teacher's
// pkg/api.ErrorResponse / pkg/errors.AppError shape.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	kind := operation.Kind(chi.URLParam(r, "kind"))
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, graphstoreerr.Operation("reading request body: %v", err))
		return
	}

	result, err := operation.Execute(r.Context(), h.env, kind, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// chainRequest is the JSON surface for a sequential operation chain (spec
// §4.7, C8): each step executes in order, and whenever the next step's
// kind accepts piped input — GetElements/GetAdjacentEntitySeeds' "seeds",
// AddElements' "elements" — and its own body doesn't already set that
// field, the previous step's result is threaded straight in (e.g.
// GetAdjacentEntitySeeds's seeds feed a following GetElements step, or a
// GetElements step's elements feed a following AddElements step). A step
// naming its own input field explicitly wins over piping. Because the Kind
// sequence is only known at request time, this is a runtime shape check
// rather than the compile-time-checked operation.Chain/Then a direct Go
// caller gets (operation/chain.go); a result shape the next step can't
// consume surfaces an OperationError instead of being silently dropped.
type chainRequest struct {
	Steps []chainStep `json:"steps"`
}

type chainStep struct {
	Kind operation.Kind  `json:"kind"`
	Body json.RawMessage `json:"body"`
}

func (h *Handler) chain(w http.ResponseWriter, r *http.Request) {
	var req chainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, graphstoreerr.Operation("decoding chain request: %v", err))
		return
	}
	if len(req.Steps) == 0 {
		h.writeError(w, r, graphstoreerr.Operation("chain has no steps"))
		return
	}

	var prev interface{}
	for i, step := range req.Steps {
		body := step.Body
		if i > 0 {
			piped, err := pipeStepInput(prev, step.Kind, body)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			body = piped
		}
		out, err := operation.Execute(r.Context(), h.env, step.Kind, body)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		prev = out
	}
	writeJSON(w, http.StatusOK, prev)
}

// inputFieldFor names the JSON field a step's kind accepts piped input
// through, matching GetElementsRequest/GetAdjacentEntitySeedsRequest's
// "seeds" and AddElementsRequest's "elements" fields in
// operation/operation.go. Kinds with no such field (e.g. range-seeded
// operations) never receive piped input; their step body must be
// self-contained.
func inputFieldFor(kind operation.Kind) string {
	switch kind {
	case operation.KindGetElements, operation.KindGetAdjacentEntitySeeds:
		return "seeds"
	case operation.KindAddElements:
		return "elements"
	default:
		return ""
	}
}

// pipeStepInput threads a chain step's predecessor result into this step's
// request body, under whichever field inputFieldFor names for its kind —
// unless the body already sets that field explicitly, in which case it is
// left untouched. prev's concrete type must match what the field expects
// ([]operation.SeedJSON for "seeds", []operation.ElementJSON for
// "elements"); a mismatch is an OperationError, not a silent no-op, since a
// chain step that can't consume its predecessor's output is a build-time
// wiring mistake the caller needs to see.
func pipeStepInput(prev interface{}, kind operation.Kind, body json.RawMessage) (json.RawMessage, error) {
	field := inputFieldFor(kind)
	if field == "" || prev == nil {
		return body, nil
	}

	raw := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, graphstoreerr.Operation("decoding chain step body for %q: %v", kind, err)
		}
	}
	if _, explicit := raw[field]; explicit {
		return body, nil
	}

	var payload interface{}
	switch field {
	case "seeds":
		seeds, ok := prev.([]operation.SeedJSON)
		if !ok {
			return nil, graphstoreerr.Operation("cannot pipe %T into %q's seeds", prev, kind)
		}
		payload = seeds
	case "elements":
		elements, ok := prev.([]operation.ElementJSON)
		if !ok {
			return nil, graphstoreerr.Operation("cannot pipe %T into %q's elements", prev, kind)
		}
		payload = elements
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, graphstoreerr.Operation("encoding piped %q input: %v", field, err)
	}
	raw[field] = encoded
	merged, err := json.Marshal(raw)
	if err != nil {
		return nil, graphstoreerr.Operation("re-encoding chain step body: %v", err)
	}
	return merged, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("operation failed", zap.Error(err), zap.String("requestId", middleware.FromContext(r.Context())))
	} else {
		h.logger.Warn("operation rejected", zap.Error(err), zap.String("requestId", middleware.FromContext(r.Context())))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: middleware.FromContext(r.Context())})
}

// statusFor maps a graphstoreerr.Kind to an HTTP status. ConfigError and
// SchemaError are fatal at initialisation (spec §7) and should never reach
// a request handler; they map to 500 defensively rather than panicking.
func statusFor(err error) int {
	switch {
	case graphstoreerr.IsOperation(err):
		return http.StatusBadRequest
	case graphstoreerr.IsIteratorConfig(err):
		return http.StatusBadRequest
	case graphstoreerr.IsStore(err):
		return http.StatusBadGateway
	case graphstoreerr.IsCodec(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
