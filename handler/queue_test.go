package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableQueueFIFO(t *testing.T) {
	t.Parallel()

	q := newAvailableQueue()
	assert.True(t, q.Empty())

	a := &JobWrapper{JobID: "a"}
	b := &JobWrapper{JobID: "b"}
	q.Push(a)
	q.Push(b)

	assert.Equal(t, 2, q.Len())

	got, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "a", got.JobID)

	got, ok = q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "b", got.JobID)

	_, ok = q.TryPop()
	assert.False(t, ok)
	assert.True(t, q.Empty())
}

func TestFinishedQueueDrainAll(t *testing.T) {
	t.Parallel()

	q := newFinishedQueue()
	assert.Nil(t, q.DrainAll())

	q.Push(&JobWrapper{JobID: "a"})
	q.Push(&JobWrapper{JobID: "b"})
	assert.Equal(t, 2, q.Len())

	drained := q.DrainAll()
	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].JobID)
	assert.Equal(t, "b", drained[1].JobID)
	assert.Equal(t, 0, q.Len())
}

func TestEdgeSignalCollapsesRepeatedRaises(t *testing.T) {
	t.Parallel()

	s := newEdgeSignal()
	s.Raise()
	s.Raise()
	s.Raise()

	select {
	case <-s.C():
	default:
		t.Fatal("expected a pending notification")
	}

	select {
	case <-s.C():
		t.Fatal("expected only one pending notification")
	default:
	}
}
