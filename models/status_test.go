package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusRequested))
	assert.True(t, ValidStatus(StatusPaidAwaiting))
	assert.True(t, ValidStatus(StatusDecoratorAssigned))
	assert.True(t, ValidStatus(StatusCompleted))
	assert.True(t, ValidStatus(StatusCancelled))

	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("In Progress"))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from ServiceStatus
		to   ServiceStatus
		ok   bool
	}{
		{"requested to paid", StatusRequested, StatusPaidAwaiting, true},
		{"paid to assigned", StatusPaidAwaiting, StatusDecoratorAssigned, true},
		{"assigned to completed", StatusDecoratorAssigned, StatusCompleted, true},
		{"requested to assigned skips payment", StatusRequested, StatusDecoratorAssigned, false},
		{"completed is terminal", StatusCompleted, StatusRequested, false},
		{"cancelled is terminal", StatusCancelled, StatusPaidAwaiting, false},
		{"no backwards move", StatusDecoratorAssigned, StatusRequested, false},
		{"cancel from any live state", StatusPaidAwaiting, StatusCancelled, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to))
		})
	}
}

func TestTransitionSources(t *testing.T) {
	assert.Equal(t, []ServiceStatus{StatusRequested}, TransitionSources(StatusPaidAwaiting))
	assert.Equal(t, []ServiceStatus{StatusPaidAwaiting}, TransitionSources(StatusDecoratorAssigned))
	assert.Equal(t, []ServiceStatus{StatusDecoratorAssigned}, TransitionSources(StatusCompleted))
	assert.ElementsMatch(t,
		[]ServiceStatus{StatusRequested, StatusPaidAwaiting, StatusDecoratorAssigned},
		TransitionSources(StatusCancelled))

	// nothing moves back to Requested
	assert.Empty(t, TransitionSources(StatusRequested))
}

func TestCanTransitionEmptyMeansRequested(t *testing.T) {
	assert.True(t, CanTransition("", StatusPaidAwaiting))
	assert.False(t, CanTransition("", StatusCompleted))
}
