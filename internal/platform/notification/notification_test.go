package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Template Engine Tests
// ---------------------------------------------------------------------------

func TestTemplateEngine_RegisterAndRender(t *testing.T) {
	eng := NewTemplateEngine()
	eng.RegisterTemplate(Template{
		ID:      "test-tpl",
		Name:    "Test Template",
		Subject: "Hello {{name}}",
		Body:    "Dear {{name}}, your code is {{code}}.",
		Channel: ChannelEmail,
	})

	subject, body, err := eng.Render("test-tpl", map[string]string{
		"name": "Alice",
		"code": "1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Hello Alice" {
		t.Errorf("subject = %q, want %q", subject, "Hello Alice")
	}
	if body != "Dear Alice, your code is 1234." {
		t.Errorf("body = %q, want %q", body, "Dear Alice, your code is 1234.")
	}
}

func TestTemplateEngine_RenderMissing(t *testing.T) {
	eng := NewTemplateEngine()
	_, _, err := eng.Render("nonexistent", nil)
	if err == nil {
		t.Fatal("expected error for missing template, got nil")
	}
}

func TestTemplateEngine_BuiltInTemplates(t *testing.T) {
	eng := NewTemplateEngine()
	builtIn := []string{
		"booking-received",
		"booking-received-sms",
		"admin-new-booking",
		"admin-new-booking-sms",
		"visit-reminder",
		"visit-reminder-sms",
	}
	for _, id := range builtIn {
		if _, _, err := eng.Render(id, map[string]string{"name": "x"}); err != nil {
			t.Errorf("built-in template %q missing: %v", id, err)
		}
	}
}

func TestTemplateEngine_UnknownKeysLeftAsIs(t *testing.T) {
	eng := NewTemplateEngine()
	_, body, err := eng.Render("booking-received-sms", map[string]string{"tests": "CBC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "CBC") {
		t.Errorf("expected tests substituted, got %q", body)
	}
	if !strings.Contains(body, "{{date}}") {
		t.Errorf("expected unsupplied key left intact, got %q", body)
	}
}

// ---------------------------------------------------------------------------
// Gateway SMS Sender Tests
// ---------------------------------------------------------------------------

func TestGatewaySMSSender_Send(t *testing.T) {
	var got gatewaySMSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(gatewaySMSResponse{Code: 0, Status: "success"})
	}))
	defer srv.Close()

	s, err := NewGatewaySMSSender(GatewaySMSConfig{APIURL: srv.URL, APIKey: "test-key", SenderName: "LABVISIT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SendSMS(context.Background(), "+919900112233", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Recipient != "+919900112233" || got.Message != "hello" || got.SenderName != "LABVISIT" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestGatewaySMSSender_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s, _ := NewGatewaySMSSender(GatewaySMSConfig{APIURL: srv.URL, APIKey: "k"})
	if err := s.SendSMS(context.Background(), "+1", "x"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestGatewaySMSSender_RejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gatewaySMSResponse{Code: 101, Status: "error", Msg: "invalid recipient"})
	}))
	defer srv.Close()

	s, _ := NewGatewaySMSSender(GatewaySMSConfig{APIURL: srv.URL, APIKey: "k"})
	if err := s.SendSMS(context.Background(), "bogus", "x"); err == nil {
		t.Fatal("expected error for rejected message")
	}
}

func TestNewGatewaySMSSender_RequiresURL(t *testing.T) {
	if _, err := NewGatewaySMSSender(GatewaySMSConfig{}); err == nil {
		t.Fatal("expected error for missing gateway url")
	}
}

// ---------------------------------------------------------------------------
// Disabled Sender Tests
// ---------------------------------------------------------------------------

func TestDisabledSenders(t *testing.T) {
	if err := (DisabledEmailSender{}).SendEmail(context.Background(), "a@b.c", "s", "b"); err == nil {
		t.Error("expected error from disabled email sender")
	}
	if err := (DisabledSMSSender{}).SendSMS(context.Background(), "+1", "b"); err == nil {
		t.Error("expected error from disabled sms sender")
	}
}
