package orders

import "github.com/naritchaphan/talad-backend/pkg/enums"

// transitions is the only source of truth for admin status changes. An
// order moves pending -> paid -> processing -> shipping -> delivered, can
// be cancelled before processing starts, and can be parked in problem from
// any non-terminal state. From problem an admin can resume fulfilment,
// send the order back to pending so the customer attaches a corrected
// slip, or cancel it outright.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusPaid, enums.OrderStatusCancelled, enums.OrderStatusProblem},
	enums.OrderStatusPaid:       {enums.OrderStatusProcessing, enums.OrderStatusCancelled, enums.OrderStatusProblem},
	enums.OrderStatusProcessing: {enums.OrderStatusShipping, enums.OrderStatusProblem},
	enums.OrderStatusShipping:   {enums.OrderStatusDelivered, enums.OrderStatusProblem},
	enums.OrderStatusProblem:    {enums.OrderStatusPending, enums.OrderStatusProcessing, enums.OrderStatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
