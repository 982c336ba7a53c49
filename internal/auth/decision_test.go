package auth

import "testing"

func TestDecidePrecedence(t *testing.T) {
	owner := uint64(7)
	other := uint64(8)

	cases := []struct {
		name       string
		actor      uint64
		privileged bool
		res        ResourceView
		want       DecisionStatus
	}{
		{"missing resource", owner, false, ResourceView{Exists: false}, DeniedNotFound},
		{"missing resource privileged", other, true, ResourceView{Exists: false}, DeniedNotFound},
		{"owner", owner, false, ResourceView{Exists: true, OwnerID: &owner}, Allowed},
		{"owner and privileged", owner, true, ResourceView{Exists: true, OwnerID: &owner}, Allowed},
		{"not owner not privileged", other, false, ResourceView{Exists: true, OwnerID: &owner}, DeniedForbidden},
		{"not owner privileged", other, true, ResourceView{Exists: true, OwnerID: &owner}, Allowed},
		{"ownerless not privileged", other, false, ResourceView{Exists: true}, DeniedForbidden},
		{"ownerless privileged", other, true, ResourceView{Exists: true}, Allowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.actor, tc.privileged, tc.res)
			if got.Status != tc.want {
				t.Fatalf("Decide(%d, %v, %+v) = %v, want %v", tc.actor, tc.privileged, tc.res, got.Status, tc.want)
			}
		})
	}
}

func TestDecideTombstoneIsIdempotent(t *testing.T) {
	// A tombstoned comment has no owner, but repeat deletes must succeed
	// for anyone rather than dead-ending in a 403.
	res := ResourceView{Exists: true, Tombstoned: true}

	for _, privileged := range []bool{false, true} {
		got := Decide(99, privileged, res)
		if got.Status != Allowed {
			t.Fatalf("Decide(privileged=%v) on tombstone = %v, want Allowed", privileged, got.Status)
		}
	}
}

func TestDecideMissingBeatsTombstone(t *testing.T) {
	got := Decide(1, true, ResourceView{Exists: false, Tombstoned: true})
	if got.Status != DeniedNotFound {
		t.Fatalf("got %v, want DeniedNotFound", got.Status)
	}
}
