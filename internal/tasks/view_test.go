package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitColumns(t *testing.T) {
	tasks := []Task{
		{ID: 1, Text: "a", Completed: false},
		{ID: 2, Text: "b", Completed: true},
		{ID: 3, Text: "c", Completed: false},
		{ID: 4, Text: "d", Completed: true},
	}

	cols := SplitColumns(tasks)

	assert.Equal(t, []Task{tasks[0], tasks[2]}, cols.Pending)
	assert.Equal(t, []Task{tasks[1], tasks[3]}, cols.Completed)
	assert.Equal(t, Stats{Total: 4, Pending: 2, Completed: 2}, cols.Stats)
}

func TestSplitColumnsEmpty(t *testing.T) {
	cols := SplitColumns(nil)

	// empty columns encode as [] rather than null
	assert.NotNil(t, cols.Pending)
	assert.NotNil(t, cols.Completed)
	assert.Equal(t, Stats{}, cols.Stats)
}
