package timing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsDurations(t *testing.T) {
	tt := NewTracker(nil)

	ctx := tt.StartTiming("load")
	time.Sleep(2 * time.Millisecond)
	d := tt.EndTiming(ctx)

	assert.GreaterOrEqual(t, d, 2*time.Millisecond)
	assert.Equal(t, []time.Duration{d}, tt.GetTimings("load"))
	assert.Equal(t, d, tt.GetAverageTime("load"))
	assert.Equal(t, []string{"load"}, tt.Operations())
}

func TestTrackerIgnoresForeignContext(t *testing.T) {
	tt := NewTracker(nil)

	assert.Zero(t, tt.EndTiming(context.Background()))
	assert.Empty(t, tt.Operations())
	assert.Zero(t, tt.GetAverageTime("missing"))
}

func TestTrackerDisabled(t *testing.T) {
	tt := NewTracker(nil)
	tt.SetEnabled(false)

	tt.EndTiming(tt.StartTiming("save"))
	assert.Nil(t, tt.GetTimings("save"))
}
