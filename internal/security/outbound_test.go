package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewOutboundClient_Timeout(t *testing.T) {
	client := NewOutboundClient(5 * time.Second)
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Error("expected custom Transport")
	}
}

// httptestサーバーは127.0.0.1で起動するためブロックされる。
func TestNewOutboundClient_BlocksLoopback(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewOutboundClient(2 * time.Second)
	resp, err := client.Get(ts.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected loopback request to be blocked")
	}
}

func TestNewOutboundClient_BlocksPlainHTTP(t *testing.T) {
	client := NewOutboundClient(2 * time.Second)
	resp, err := client.Get("http://accounts.google.com/")
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected http scheme to be blocked")
	}
}

func TestNewOutboundClient_BlocksMetadataIP(t *testing.T) {
	client := NewOutboundClient(2 * time.Second)
	resp, err := client.Get("https://169.254.169.254/latest/meta-data/")
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected metadata IP to be blocked")
	}
}
