package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"billminder/internal/log"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{64, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"amqp closed", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("some other error"), false},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "billminder", queueName: "sync_bills", logger: log.Discard()}

	t.Run("initial state is closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("circuit breaker should be closed initially")
		}
	})

	t.Run("record success resets state", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 3)
		atomic.StoreInt32(&client.state, StateOpen)

		client.recordSuccess()

		if atomic.LoadInt64(&client.failureCount) != 0 {
			t.Error("failure count should be reset after success")
		}
		if atomic.LoadInt32(&client.state) != StateClosed {
			t.Error("state should be StateClosed after success")
		}
	})

	t.Run("max failures open circuit", func(t *testing.T) {
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		if !client.isCircuitOpen() {
			t.Error("circuit breaker should be open after max failures")
		}
	})

	t.Run("circuit half-opens after timeout", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		if client.isCircuitOpen() {
			t.Error("circuit should half-open after timeout")
		}
		if atomic.LoadInt32(&client.state) != StateHalfOpen {
			t.Error("state should be StateHalfOpen after timeout")
		}
	})

	t.Run("failure while half-open reopens", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 0)
		client.recordFailure()
		if atomic.LoadInt32(&client.state) != StateOpen {
			t.Error("a failed half-open attempt should reopen the circuit")
		}
	})
}

func TestClient_Publish(t *testing.T) {
	client := &Client{exchangeName: "billminder", queueName: "sync_bills", logger: log.Discard()}

	t.Run("fails fast when circuit is open", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.PublishBillSync(context.Background(), 123, 1)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("PublishBillSync() error = %v, want ErrCircuitOpen", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateClosed)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.PublishBillDelete(ctx, 123); !errors.Is(err, context.Canceled) {
			t.Errorf("PublishBillDelete() error = %v, want context.Canceled", err)
		}
	})

	t.Run("without a channel counts a failure", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateClosed)
		atomic.StoreInt64(&client.failureCount, 0)

		if err := client.PublishBillSync(context.Background(), 1, 1); err == nil {
			t.Fatal("PublishBillSync() error = nil without a connection")
		}
		if atomic.LoadInt64(&client.failureCount) != 1 {
			t.Errorf("failureCount = %d, want 1", client.failureCount)
		}
	})
}

func TestBillMessages(t *testing.T) {
	sync := NewBillSyncMessage(12, 3)
	if sync.Type != TypeSync || sync.ID != 12 || sync.Version != 3 {
		t.Errorf("NewBillSyncMessage() = %+v", sync)
	}
	if time.Since(sync.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}

	del := NewBillDeleteMessage(12)
	body, err := del.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if strings.Contains(string(body), "version") {
		t.Errorf("delete message should omit version: %s", body)
	}

	parsed, err := BillMessageFromJSON(body)
	if err != nil {
		t.Fatalf("BillMessageFromJSON() error = %v", err)
	}
	if parsed.Type != TypeDelete || parsed.ID != 12 || !parsed.Timestamp.Equal(del.Timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, del)
	}
}

func TestBillMessageFromJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad id type", `{"type":"sync","id":"nope"}`},
		{"unknown type", `{"type":"archive","id":1}`},
		{"missing id", `{"type":"sync"}`},
		{"not json", `sync 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BillMessageFromJSON([]byte(tt.body)); err == nil {
				t.Error("BillMessageFromJSON() error = nil")
			}
		})
	}
}
