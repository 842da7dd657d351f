package stream

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{Window: 50 * time.Millisecond, Idle: 10 * time.Millisecond}
}

func TestNextBatchesWindow(t *testing.T) {
	s := New(testConfig())

	require.NoError(t, s.Send("UAP# "))
	require.NoError(t, s.Send("set-inform\n"))

	batch, more := s.Next(context.Background())
	assert.Equal(t, "UAP# set-inform\n", batch)
	assert.True(t, more)
}

func TestNextReturnsOnClose(t *testing.T) {
	s := New(Config{Window: time.Hour, Idle: time.Hour})

	require.NoError(t, s.Send("done\n"))
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Close()
	}()

	start := time.Now()
	batch, more := s.Next(context.Background())
	assert.Equal(t, "done\n", batch)
	assert.False(t, more)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNextEmptyWindowWaitsIdle(t *testing.T) {
	s := New(testConfig())

	start := time.Now()
	batch, more := s.Next(context.Background())
	assert.Empty(t, batch)
	assert.True(t, more)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestSendAfterClose(t *testing.T) {
	s := New(testConfig())
	s.Close()

	assert.ErrorIs(t, s.Send("late"), ErrClosed)
	assert.True(t, s.Closed())
}

func TestSendAfterDetach(t *testing.T) {
	s := New(testConfig())
	require.NoError(t, s.Send("queued"))
	s.Detach()

	assert.ErrorIs(t, s.Send("late"), ErrDetached)

	batch, more := s.Next(context.Background())
	assert.Empty(t, batch)
	assert.False(t, more)
}

func TestSendNeverBlocks(t *testing.T) {
	s := New(testConfig())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			_ = s.Send("x")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked without a consumer")
	}
}

func TestNextHonorsContext(t *testing.T) {
	s := New(Config{Window: time.Hour, Idle: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	batch, more := s.Next(ctx)
	assert.Empty(t, batch)
	assert.False(t, more)
}

func TestRunPreservesOrder(t *testing.T) {
	s := New(testConfig())

	go func() {
		for _, chunk := range []string{"a", "b", "c", "d"} {
			_ = s.Send(chunk)
			time.Sleep(30 * time.Millisecond)
		}
		s.Close()
	}()

	var batches []string
	err := s.Run(context.Background(), func(batch string) {
		batches = append(batches, batch)
	})
	require.NoError(t, err)

	assert.Equal(t, "abcd", strings.Join(batches, ""))
	for _, b := range batches {
		assert.NotEmpty(t, b)
	}
}
