package service

import "procurehub/internal/model"

// Axis identifies which of the two status tracks a transition targets.
type Axis string

const (
	AxisRequest    Axis = "request"
	AxisResolution Axis = "resolution"
)

var requestStatuses = map[string]struct{}{
	model.RequestStatusPending:   {},
	model.RequestStatusApproved:  {},
	model.RequestStatusFulfilled: {},
	model.RequestStatusShipped:   {},
	model.RequestStatusRejected:  {},
}

var resolutionStatuses = map[string]struct{}{
	model.ResolutionPending:  {},
	model.ResolutionNotified: {},
	model.ResolutionResolved: {},
}

// ValidForAxis reports whether status is a member of the axis's enum.
func ValidForAxis(axis Axis, status string) bool {
	switch axis {
	case AxisRequest:
		_, ok := requestStatuses[status]
		return ok
	case AxisResolution:
		_, ok := resolutionStatuses[status]
		return ok
	default:
		return false
	}
}

// StatusPolicy is what a lifecycle status implies for notification fan-out.
// Notify=false means the status is legitimate but carries no customer
// notification.
type StatusPolicy struct {
	Kind   string
	Notify bool
}

// statusPolicies is keyed by (axis, status) and total over both enums. The
// two axes share the literal "PENDING", so the axis key is what keeps a
// resolution reset from dispatching a payment reminder.
var statusPolicies = map[Axis]map[string]StatusPolicy{
	AxisRequest: {
		model.RequestStatusPending:   {Kind: model.NotifPaymentPending, Notify: true},
		model.RequestStatusApproved:  {Kind: model.NotifPaymentConfirmed, Notify: true},
		model.RequestStatusFulfilled: {Kind: model.NotifFulfilled, Notify: true},
		model.RequestStatusShipped:   {Kind: model.NotifShipped, Notify: true},
		model.RequestStatusRejected:  {Kind: model.NotifRejected, Notify: true},
	},
	AxisResolution: {
		// A reset back into the resolution workflow is silent; the customer
		// hears about it when the unavailable notification goes out.
		model.ResolutionPending:  {},
		model.ResolutionNotified: {Kind: model.NotifUnavailable, Notify: true},
		model.ResolutionResolved: {Kind: model.NotifResolved, Notify: true},
	},
}

// PolicyFor returns the policy for status on axis. When the pair is unknown
// the request-axis PENDING policy is returned with ok=false so the caller can
// log the fallback — an unknown status means somebody passed an invalid
// value, not a new feature.
func PolicyFor(axis Axis, status string) (StatusPolicy, bool) {
	if policies, ok := statusPolicies[axis]; ok {
		if policy, ok := policies[status]; ok {
			return policy, true
		}
	}
	return statusPolicies[AxisRequest][model.RequestStatusPending], false
}

// NotificationRoute translates a notification kind back to the lifecycle
// status it implies.
type NotificationRoute struct {
	Axis   Axis
	Status string
}

var notificationRoutes = map[string]NotificationRoute{
	model.NotifPaymentPending:   {Axis: AxisRequest, Status: model.RequestStatusPending},
	model.NotifPaymentConfirmed: {Axis: AxisRequest, Status: model.RequestStatusApproved},
	model.NotifFulfilled:        {Axis: AxisRequest, Status: model.RequestStatusFulfilled},
	model.NotifShipped:          {Axis: AxisRequest, Status: model.RequestStatusShipped},
	model.NotifRejected:         {Axis: AxisRequest, Status: model.RequestStatusRejected},
	model.NotifUnavailable:      {Axis: AxisResolution, Status: model.ResolutionNotified},
	model.NotifResolved:         {Axis: AxisResolution, Status: model.ResolutionResolved},
}

// RouteFor returns the status a notification kind maps to.
func RouteFor(kind string) (NotificationRoute, bool) {
	route, ok := notificationRoutes[kind]
	return route, ok
}
