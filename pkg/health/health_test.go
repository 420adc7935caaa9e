package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("connection refused") }

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   Status
	}{
		{"none", nil, StatusHealthy},
		{"all ok", map[string]CheckFunc{"a": ok, "b": ok}, StatusHealthy},
		{"some failing", map[string]CheckFunc{"a": ok, "b": fail}, StatusDegraded},
		{"all failing", map[string]CheckFunc{"a": fail, "b": fail}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			c.RunAll(context.Background(), tt.checks, 2)
			assert.Equal(t, tt.want, c.GetOverallStatus())
		})
	}
}

func TestGetAllChecks(t *testing.T) {
	c := NewChecker()
	c.RunAll(context.Background(), map[string]CheckFunc{"b": fail, "a": ok}, 4)

	checks := c.GetAllChecks()
	require.Len(t, checks, 2)
	assert.Equal(t, "a", checks[0].Name)
	assert.Equal(t, StatusHealthy, checks[0].Status)
	assert.Equal(t, "OK", checks[0].Message)
	assert.Equal(t, "b", checks[1].Name)
	assert.Equal(t, "connection refused", checks[1].Message)
}

func TestRunAllBoundsParallelism(t *testing.T) {
	var inFlight, peak int32
	slow := func(context.Context) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	}

	checks := map[string]CheckFunc{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		checks[name] = slow
	}
	c := NewChecker()
	c.RunAll(context.Background(), checks, 2)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Len(t, c.GetAllChecks(), 6)
}

func TestLastHealthyTime(t *testing.T) {
	c := NewChecker()
	c.RunCheck(context.Background(), "a", fail)
	before := c.GetLastHealthyTime()

	c.RunCheck(context.Background(), "a", ok)
	assert.True(t, c.GetLastHealthyTime().After(before) || c.GetLastHealthyTime().Equal(before))
}
