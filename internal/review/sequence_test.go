package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceFirstNoDecides(t *testing.T) {
	tests := []struct {
		answers []bool
		want    BusinessStage
	}{
		{[]bool{false}, StageOffer},
		{[]bool{true, false}, StageLeads},
		{[]bool{true, true, false}, StageSales},
		{[]bool{true, true, true, false}, StageDelivery},
		{[]bool{true, true, true, true}, StageScaling},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			var check SequenceCheck
			var stage BusinessStage
			var done bool
			for _, yes := range tt.answers {
				stage, done = check.Answer(yes)
			}
			require.True(t, done)
			assert.Equal(t, tt.want, stage)
			assert.NotEmpty(t, PriorityTask(stage))
			_, pending := check.Question()
			assert.False(t, pending)
		})
	}
}

func TestSequenceReset(t *testing.T) {
	var check SequenceCheck
	check.Answer(false)
	check.Reset()

	q, ok := check.Question()
	require.True(t, ok)
	assert.Equal(t, StageOffer, q.Stage)
	assert.Equal(t, "Do 10 sales calls today", PriorityTask(StageSales))
}
