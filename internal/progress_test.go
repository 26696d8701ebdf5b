package internal

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Adding to cart",
			fn:      func() error { return nil },
		},
		{
			name:    "function with error",
			message: "Placing order",
			fn:      func() error { return errors.New("test error") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestShowProgress_WritesOutcome(t *testing.T) {
	var buf bytes.Buffer
	err := showProgress(context.Background(), &buf, "Syncing cart", func() error {
		time.Sleep(150 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓")
	assert.Contains(t, buf.String(), "Syncing cart")
}

func TestShowProgress_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	var buf bytes.Buffer
	err := showProgress(ctx, &buf, "Waiting", func() error {
		<-release
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, buf.String(), "✗")
}

func TestPrintNotification(t *testing.T) {
	var buf bytes.Buffer
	PrintNotification(&buf, Notification{Message: "Cart cleared ✅", Kind: NotifySuccess})
	PrintNotification(&buf, Notification{Message: "Failed ❌", Kind: NotifyError})
	assert.Equal(t, "Cart cleared ✅\nFailed ❌\n", buf.String())
}
