package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer, "Training", "")
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestInterrupt_CancelsOnce(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output, "Training", "No artifacts were written.")
	ctx := handler.HandleInterrupts(context.Background())

	handler.interrupt()
	handler.interrupt()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled")
	}
	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, strings.Count(output.String(), "Training interrupted!"),
		"interrupt message should only be shown once")
	assert.Contains(t, output.String(), "No artifacts were written.")
}

func TestHandleInterrupts_ParentCancelIsNotAnInterrupt(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output, "Training", "")

	parent, cancel := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent)
	cancel()

	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		name        string
		hint        string
		expected    []string
		notExpected []string
	}{
		{
			name:     "with hint",
			hint:     "Re-run: risk train",
			expected: []string{"Scoring interrupted!", "Re-run: risk train"},
		},
		{
			name:        "without hint",
			expected:    []string{"Scoring interrupted!"},
			notExpected: []string{"Re-run"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := NewInterruptHandler(&output, "Scoring", tt.hint)

			handler.showInterruptMessage()

			for _, expected := range tt.expected {
				assert.Contains(t, output.String(), expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, output.String(), notExpected)
			}
		})
	}
}
