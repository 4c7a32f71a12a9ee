package role

import (
	"fmt"
	"strings"
)

// Role is the closed set of actor roles carried in access tokens.
type Role string

const (
	Admin     Role = "admin"
	Moderator Role = "moderator"
	Worker    Role = "worker"
	Customer  Role = "customer"
)

var all = []Role{Admin, Moderator, Worker, Customer}

// Parse matches s case-insensitively against the known roles.
func Parse(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range all {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	_, err := Parse(string(r))
	return err == nil
}

// Action is something a role may be allowed to do.
type Action string

const (
	ActionTransitionAnyBooking Action = "booking.transition.any"
	ActionAssignWorker         Action = "booking.assign_worker"
	ActionTransitionAssigned   Action = "booking.transition.assigned"
	ActionClaimBooking         Action = "booking.claim"
	ActionListAllBookings      Action = "booking.list_all"
	ActionViewAnyBooking       Action = "booking.view_any"
	ActionListWorkerJobs       Action = "booking.list_jobs"
	ActionPayOwnBooking        Action = "booking.pay_own"
	ActionSubmitCash           Action = "booking.submit_cash"
	ActionRecordAnyPayment     Action = "booking.record_payment"
	ActionSubscribeEvents      Action = "booking.subscribe"
	ActionReviewBooking        Action = "booking.review"
	ActionSubmitCommission     Action = "commission.submit"
	ActionProcessCommission    Action = "commission.process"
	ActionListAllTransactions  Action = "payment.list_all"
)

var capabilities = map[Role]map[Action]bool{
	Admin: {
		ActionTransitionAnyBooking: true,
		ActionAssignWorker:         true,
		ActionListAllBookings:      true,
		ActionViewAnyBooking:       true,
		ActionRecordAnyPayment:     true,
		ActionSubscribeEvents:      true,
		ActionProcessCommission:    true,
		ActionListAllTransactions:  true,
	},
	Moderator: {
		ActionTransitionAnyBooking: true,
		ActionAssignWorker:         true,
		ActionListAllBookings:      true,
		ActionViewAnyBooking:       true,
		ActionRecordAnyPayment:     true,
		ActionSubscribeEvents:      true,
		ActionListAllTransactions:  true,
	},
	Worker: {
		ActionTransitionAssigned: true,
		ActionClaimBooking:       true,
		ActionListWorkerJobs:     true,
		ActionSubmitCash:         true,
		ActionSubscribeEvents:    true,
		ActionSubmitCommission:   true,
	},
	Customer: {
		ActionPayOwnBooking:   true,
		ActionSubscribeEvents: true,
		ActionReviewBooking:   true,
	},
}

// Can reports whether the role holds the capability. Unknown roles hold none.
func (r Role) Can(a Action) bool {
	return capabilities[r][a]
}
