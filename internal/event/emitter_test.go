package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterDeliversInOrder(t *testing.T) {
	var e Emitter[int]
	var got []string

	e.Subscribe(func(v int) { got = append(got, "a") })
	e.Subscribe(func(v int) { got = append(got, "b") })

	e.Emit(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestEmitterUnsubscribe(t *testing.T) {
	var e Emitter[string]
	var calls int

	unsub := e.Subscribe(func(string) { calls++ })
	require.Equal(t, 1, e.Len())

	e.Emit("x")
	unsub()
	unsub()
	e.Emit("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, e.Len())
}

func TestEmitterUnsubscribeDuringEmit(t *testing.T) {
	var e Emitter[int]
	var calls []int

	var unsub func()
	unsub = e.Subscribe(func(v int) {
		calls = append(calls, v)
		unsub()
	})
	e.Subscribe(func(v int) { calls = append(calls, v*10) })

	e.Emit(1)
	e.Emit(2)

	assert.Equal(t, []int{1, 10, 20}, calls)
}
