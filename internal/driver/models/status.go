package models

import (
	dErrors "vetting/pkg/domain-errors"
)

// Status is the driver's position in the verification lifecycle.
type Status string

const (
	StatusIncomplete          Status = "incomplete"
	StatusPendingVerification Status = "pending_verification"
	StatusVerified            Status = "verified"
	StatusSuspended           Status = "suspended"
	StatusInactive            Status = "inactive"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusIncomplete, StatusPendingVerification, StatusVerified, StatusSuspended, StatusInactive:
		return st, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unknown driver status "+s)
	}
}

// Action is a request to move a driver along one edge of the lifecycle.
type Action string

const (
	ActionSubmit        Action = "submit"
	ActionApproveLevel2 Action = "approve_level_2"
	ActionApproveLevel3 Action = "approve_level_3"
	ActionReject        Action = "reject"
	ActionReinstate     Action = "reinstate"
	ActionDeactivate    Action = "deactivate"
	ActionReactivate    Action = "reactivate"
)

// ParseVerdict accepts only the actions an admin may issue through a verdict.
func ParseVerdict(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionApproveLevel2, ActionApproveLevel3, ActionReject:
		return a, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "action must be approve_level_2, approve_level_3 or reject")
	}
}

// RequiresNotes reports whether the action must carry an explanation.
func (a Action) RequiresNotes() bool {
	switch a {
	case ActionReject, ActionReinstate, ActionDeactivate:
		return true
	default:
		return false
	}
}

type edge struct {
	from   Status
	action Action
}

// transitions is the only definition of legal lifecycle edges.
var transitions = map[edge]Status{
	{StatusIncomplete, ActionSubmit}: StatusPendingVerification,

	{StatusPendingVerification, ActionApproveLevel2}: StatusVerified,
	{StatusPendingVerification, ActionApproveLevel3}: StatusVerified,
	{StatusVerified, ActionApproveLevel2}:            StatusVerified,
	{StatusVerified, ActionApproveLevel3}:            StatusVerified,

	{StatusPendingVerification, ActionReject}: StatusSuspended,
	{StatusVerified, ActionReject}:            StatusSuspended,

	{StatusSuspended, ActionReinstate}: StatusPendingVerification,

	{StatusIncomplete, ActionDeactivate}:          StatusInactive,
	{StatusPendingVerification, ActionDeactivate}: StatusInactive,
	{StatusVerified, ActionDeactivate}:            StatusInactive,
	{StatusSuspended, ActionDeactivate}:           StatusInactive,

	{StatusInactive, ActionReactivate}: StatusIncomplete,
}

// Next returns the status reached by applying action from s.
func (s Status) Next(action Action) (Status, error) {
	to, ok := transitions[edge{s, action}]
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidTransition,
			"cannot "+string(action)+" a driver in status "+string(s))
	}
	return to, nil
}

// CanTransitionTo reports whether any action leads from s to target.
func (s Status) CanTransitionTo(target Status) bool {
	for e, to := range transitions {
		if e.from == s && to == target {
			return true
		}
	}
	return false
}

// Actions lists the actions available from s, for UI affordances.
func (s Status) Actions() []Action {
	all := []Action{
		ActionSubmit, ActionApproveLevel2, ActionApproveLevel3, ActionReject,
		ActionReinstate, ActionDeactivate, ActionReactivate,
	}
	var out []Action
	for _, a := range all {
		if _, ok := transitions[edge{s, a}]; ok {
			out = append(out, a)
		}
	}
	return out
}
