package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"catalog/storefront/internal/domain"
)

func TestOrderIntentTaskRoundTrip(t *testing.T) {
	created := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	in := &OrderIntentTask{Intent: domain.OrderIntent{ProductID: 42, SessionID: "abc", CreatedAt: created}}

	data, err := in.TaskValue()
	require.NoError(t, err)
	require.Equal(t, OrderIntentTaskType, in.TaskType())

	out, err := UnmarshalTask[OrderIntentTask](data)
	require.NoError(t, err)
	require.Equal(t, 42, out.Intent.ProductID)
	require.True(t, created.Equal(out.Intent.CreatedAt))
}

func TestUnmarshalTaskRejectsGarbage(t *testing.T) {
	_, err := UnmarshalTask[OrderIntentTask]([]byte("{"))
	require.Error(t, err)
}
