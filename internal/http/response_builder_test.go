package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		BodyHTML("<p>ok</p>").
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("X-Test") != "1" {
		t.Error("custom header not written")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should be absent without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerStatementCalculated("750.00", 5).
		TriggerRenderQueued("job-1").
		TriggerSuccessNotification("Готово").
		Write(w)

	var triggers map[string]map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if got := triggers["statement:calculated"]; got["net_amount"] != "750.00" || got["month"] != float64(5) {
		t.Errorf("statement:calculated = %v", got)
	}
	if triggers["render:queued"]["job_id"] != "job-1" {
		t.Errorf("render:queued = %v", triggers["render:queued"])
	}
	n := triggers["show-notification"]
	if n["type"] != "success" || n["message"] != "Готово" || n["duration"] != float64(3000) {
		t.Errorf("show-notification = %v", n)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *HTMXResponseBuilder
		want    int
	}{
		{"bad request", BadRequestError("<липсва>"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("<липсва>"), http.StatusUnprocessableEntity},
		{"internal", InternalServerError("<липсва>"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			body := w.Body.String()
			if strings.Contains(body, "<липсва>") || !strings.Contains(body, "&lt;липсва&gt;") {
				t.Errorf("message not escaped: %s", body)
			}
			if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"error"`) {
				t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
			}
		})
	}
}
