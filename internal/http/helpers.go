package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"smetka/internal/core"
)

// dateLayouts are the accepted input formats, ISO first.
var dateLayouts = []string{"2006-01-02", "02.01.2006"}

// parseDate parses YYYY-MM-DD or DD.MM.YYYY.
func parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, nil
		}
	}
	return core.Date{}, err
}

// sanitizeInput removes control characters except tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSONError answers with the status errorStatus assigns to err.
func writeJSONError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	body := errorBody{Error: msg}
	if status < http.StatusInternalServerError {
		body.Detail = err.Error()
	}
	writeJSON(w, status, body)
}
