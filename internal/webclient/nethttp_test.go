package webclient_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/raysh454/netshield/internal/logging"
	"github.com/raysh454/netshield/internal/webclient"
)

// TestNewNetHTTPClient_Construct verifies that NewNetHTTPClient returns a non-nil client
func TestNewNetHTTPClient_Construct(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewNetHTTPClient(webclient.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient returned error: %v", err)
	}
	if client == nil {
		t.Fatal("NewNetHTTPClient returned nil client")
	}
	defer client.Close()

	if client.HTTPClient().Timeout != webclient.DefaultConfig().Timeout {
		t.Errorf("timeout = %s, want %s", client.HTTPClient().Timeout, webclient.DefaultConfig().Timeout)
	}
}

// TestNewNetHTTPClient_WithCustomClient verifies that a custom *http.Client can be injected
func TestNewNetHTTPClient_WithCustomClient(t *testing.T) {
	t.Parallel()
	customClient := &http.Client{Timeout: 3 * time.Second}

	client, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), customClient)
	if err != nil {
		t.Fatalf("NewNetHTTPClient returned error: %v", err)
	}
	defer client.Close()

	if client.HTTPClient() != customClient {
		t.Error("HTTPClient() did not return the injected client")
	}
}

func TestNetHTTPClient_Close(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient returned error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
}

func TestNetHTTPClient_NilRequestSentinel(t *testing.T) {
	t.Parallel()
	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop(), nil)
	defer client.Close()

	if _, err := client.Do(context.Background(), nil); !errors.Is(err, webclient.ErrNilRequest) {
		t.Errorf("err = %v, want ErrNilRequest", err)
	}
}
