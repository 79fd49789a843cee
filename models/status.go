package models

// ServiceStatus is the booking lifecycle state. The upstream design accepted
// arbitrary status strings on update; transitions are validated against an
// allow-list here instead.
type ServiceStatus string

const (
	StatusRequested         ServiceStatus = "Requested"
	StatusPaidAwaiting      ServiceStatus = "Paid–Waiting for Assignment"
	StatusDecoratorAssigned ServiceStatus = "Decorator Assigned"
	StatusCompleted         ServiceStatus = "Completed"
	StatusCancelled         ServiceStatus = "Cancelled"
)

var transitions = map[ServiceStatus][]ServiceStatus{
	StatusRequested:         {StatusPaidAwaiting, StatusCancelled},
	StatusPaidAwaiting:      {StatusDecoratorAssigned, StatusCancelled},
	StatusDecoratorAssigned: {StatusCompleted, StatusCancelled},
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s ServiceStatus) bool {
	switch s {
	case StatusRequested, StatusPaidAwaiting, StatusDecoratorAssigned, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// TransitionSources lists the states a booking may currently be in for a
// move to target to be legal. Empty for states nothing transitions into.
func TransitionSources(target ServiceStatus) []ServiceStatus {
	var sources []ServiceStatus
	for _, from := range []ServiceStatus{StatusRequested, StatusPaidAwaiting, StatusDecoratorAssigned} {
		for _, next := range transitions[from] {
			if next == target {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// CanTransition reports whether moving from one state to the next is legal.
// An empty current state is treated as Requested, matching bookings created
// before the status field was stamped at creation.
func CanTransition(from, to ServiceStatus) bool {
	if from == "" {
		from = StatusRequested
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
