package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunInBackground_WaitsForInFlightWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var finished atomic.Bool
	wait := runInBackground(ctx, func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	cancel()
	waitCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()

	assert.True(t, wait(waitCtx))
	assert.True(t, finished.Load())
}

func TestRunInBackground_GivesUpAtDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	wait := runInBackground(context.Background(), func(context.Context) { <-release })

	waitCtx, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()

	assert.False(t, wait(waitCtx))
}
