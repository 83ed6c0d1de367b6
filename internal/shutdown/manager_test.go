package shutdown

import (
	"testing"
	"time"

	"docenhance/internal/logger"

	"github.com/stretchr/testify/assert"
)

func TestShutdownReverseOrder(t *testing.T) {
	m := NewManager(logger.Nop())

	var order []int
	for i := 1; i <= 3; i++ {
		m.Register(Func(func() { order = append(order, i) }))
	}

	m.Shutdown()
	m.Shutdown()

	assert.Equal(t, []int{3, 2, 1}, order)
	assert.Error(t, m.Context().Err())

	select {
	case <-m.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager(nil)
	m.SetTimeout(10 * time.Millisecond)

	block := make(chan struct{})
	defer close(block)

	ran := false
	m.Register(Func(func() { ran = true }))
	m.Register(Func(func() { <-block }))

	start := time.Now()
	m.Shutdown()

	assert.True(t, ran)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestListenThenShutdown(t *testing.T) {
	m := NewManager(logger.Nop())
	m.Listen()
	m.Listen()
	m.Shutdown()
	assert.Error(t, m.Context().Err())
}
