package streamtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_NilIsInert(t *testing.T) {
	var r *Recorder[int]
	r.Record(1)
	r.Reset()

	assert.Nil(t, r.Values())
	assert.Zero(t, r.Len())
	assert.Nil(t, r.Changed())
}

func TestRecorder_ChangedAfterRecord(t *testing.T) {
	r := NewRecorder[string]()
	r.Record("a")
	r.Record("b")

	select {
	case <-r.Changed():
	default:
		t.Fatal("Changed did not fire after Record")
	}
	assert.Equal(t, []string{"a", "b"}, r.Values())

	r.Reset()
	assert.Zero(t, r.Len())
}
