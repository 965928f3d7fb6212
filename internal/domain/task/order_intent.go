package task

import "catalog/storefront/internal/domain"

const OrderIntentTaskType = "OrderIntentTask"

type OrderIntentTask struct {
	Intent domain.OrderIntent `json:"intent"`
}

func (t *OrderIntentTask) TaskType() string {
	return OrderIntentTaskType
}

func (t *OrderIntentTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
