package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobHistoryCapsResults(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "x", Success: true})
	}

	assert.Len(t, h.Results, 100)
}

func TestJobHistorySuccessRate(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())

	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: false, Error: "boom"})

	assert.InDelta(t, 2.0/3.0, h.GetSuccessRate(), 1e-9)

	failed := h.GetFailedResults()
	assert.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].Error)
}

func TestGetLatestResults(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 5; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	latest := h.GetLatestResults(2)
	assert.Len(t, latest, 2)

	all := h.GetLatestResults(50)
	assert.Len(t, all, 5)
}
