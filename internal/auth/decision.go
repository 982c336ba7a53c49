package auth

// decision.go implements the ownership check shared by every mutating
// endpoint on user-owned resources. Handlers build a ResourceView from
// whatever they loaded (or failed to load) and map the result onto HTTP:
// Allowed -> 2xx, DeniedNotFound -> 404, DeniedForbidden -> 403, anything
// else -> 500. The engine itself is a pure function with no I/O.

// DecisionStatus enumerates the possible outcomes of an ownership check.
type DecisionStatus int

const (
	// Allowed means the mutation may proceed.
	Allowed DecisionStatus = iota
	// DeniedNotFound means the target resource does not exist.
	DeniedNotFound
	// DeniedForbidden means the resource exists but the caller neither
	// owns it nor holds an overriding role.
	DeniedForbidden
)

// AuthorizationResult is the transient outcome of a single decision. It is
// produced and consumed within one request and never persisted.
type AuthorizationResult struct {
	Status  DecisionStatus
	Message string
}

// ResourceView is the slice of a resource the engine needs: whether it
// exists, who owns it (nil for ownerless rows, e.g. tombstoned comments)
// and whether it is a tombstone.
type ResourceView struct {
	Exists     bool
	OwnerID    *uint64
	Tombstoned bool
}

// Decide evaluates the ownership rule in fixed precedence:
//
//  1. missing resource -> DeniedNotFound, even for privileged callers, so
//     a privileged 403-vs-404 difference never leaks existence;
//  2. already-tombstoned resource -> Allowed (a repeat delete is an
//     idempotent no-op; tombstoning cleared the owner the next step would
//     need);
//  3. caller owns the resource -> Allowed;
//  4. caller holds an overriding role -> Allowed;
//  5. otherwise -> DeniedForbidden.
//
// privileged is resource-specific: callers pass the outcome of the
// appropriate Role method rather than the role itself.
func Decide(actorID uint64, privileged bool, res ResourceView) AuthorizationResult {
	if !res.Exists {
		return AuthorizationResult{Status: DeniedNotFound, Message: "resource not found"}
	}
	if res.Tombstoned {
		return AuthorizationResult{Status: Allowed, Message: "already removed"}
	}
	if res.OwnerID != nil && *res.OwnerID == actorID {
		return AuthorizationResult{Status: Allowed}
	}
	if privileged {
		return AuthorizationResult{Status: Allowed}
	}
	return AuthorizationResult{Status: DeniedForbidden, Message: "not the owner"}
}
