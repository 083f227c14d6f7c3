package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"robot-route-service/internal/domain"
	"strconv"
	"strings"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeDomainError maps core errors to HTTP statuses. Unknown errors are logged and hidden.
func writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s failed: %v", op, err)
		writeError(w, r, status, "internal server error")
		return
	}
	writeError(w, r, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrRobotNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrLargeCapacityExceeded),
		errors.Is(err, domain.ErrSmallCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRouteProviderMissing),
		errors.Is(err, domain.ErrFleetIndexMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrNoRoute):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidRoute),
		errors.Is(err, domain.ErrInvalidPackageSize),
		errors.Is(err, domain.ErrInvalidBattery),
		errors.Is(err, domain.ErrInvalidLED),
		errors.Is(err, domain.ErrInvalidTickInterval):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// allowMethods writes 405 and returns false when r.Method is not listed.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeJSON reads exactly one JSON object. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

func queryRobotID(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("robot_id"))
	if raw == "" {
		return 0, errors.New("missing robot_id")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid robot_id")
	}
	return id, nil
}

// queryCursor parses since_message_id; anything unparsable counts as 0.
func queryCursor(r *http.Request) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("since_message_id")), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func queryFloat(r *http.Request, key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func ledFromInts(v []int) (domain.LED, error) {
	if len(v) != 3 {
		return domain.LED{}, fmt.Errorf("%w: want 3 channels, got %d", domain.ErrInvalidLED, len(v))
	}
	return domain.NewLED(v[0], v[1], v[2])
}
