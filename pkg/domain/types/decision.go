package types

// DecisionKind represents an inbound approval-channel decision
type DecisionKind string

const (
	DecisionReEnable    DecisionKind = "re_enable"
	DecisionKeepBlocked DecisionKind = "keep_blocked"
	DecisionApprove     DecisionKind = "approve"
	DecisionReject      DecisionKind = "reject"
)

// AllDecisionKinds returns all valid decision kinds
func AllDecisionKinds() []DecisionKind {
	return []DecisionKind{
		DecisionReEnable,
		DecisionKeepBlocked,
		DecisionApprove,
		DecisionReject,
	}
}

// IsValid checks if the decision kind is valid
func (d DecisionKind) IsValid() bool {
	switch d {
	case DecisionReEnable, DecisionKeepBlocked, DecisionApprove, DecisionReject:
		return true
	default:
		return false
	}
}

// String returns the string representation of the decision kind
func (d DecisionKind) String() string {
	return string(d)
}
