package reconcile

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// MembershipPlan lists the member additions and removals that bring a class
// to its desired membership.
type MembershipPlan struct {
	Add    []string
	Remove []string
}

// Changed reports whether the plan issues any call.
func (p MembershipPlan) Changed() bool {
	return len(p.Add) > 0 || len(p.Remove) > 0
}

// PlanMembership compares desired and live membership as sets. With
// appendOnly, members missing from desired are left in place. Additions keep
// desired order and removals keep live order.
func PlanMembership(desired, live []string, appendOnly bool) MembershipPlan {
	want := mapset.NewThreadUnsafeSet(desired...)
	have := mapset.NewThreadUnsafeSet(live...)

	var plan MembershipPlan
	if want.SymmetricDifference(have).Cardinality() == 0 {
		return plan
	}

	added := mapset.NewThreadUnsafeSet[string]()
	for _, name := range desired {
		if !have.Contains(name) && added.Add(name) {
			plan.Add = append(plan.Add, name)
		}
	}
	if appendOnly {
		return plan
	}
	for _, name := range live {
		if !want.Contains(name) {
			plan.Remove = append(plan.Remove, name)
		}
	}
	return plan
}
