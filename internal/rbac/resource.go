package rbac

// Resource describes what an action is aimed at. The zero value means no
// resource context; constructors keep each check's precondition explicit at
// the call site instead of being inferred from which fields happen to be set.
type Resource struct {
	localityID   *int64
	targetRoleID string
}

// NoResource is an unscoped check: base permission only.
func NoResource() Resource {
	return Resource{}
}

// InLocality scopes the check to a locality in the territory tree.
func InLocality(localityID int64) Resource {
	return Resource{localityID: &localityID}
}

// TargetingRole scopes a write-type check to the role it would modify.
func TargetingRole(roleID string) Resource {
	return Resource{targetRoleID: roleID}
}

// Targeting adds a target role to an existing resource descriptor.
func (r Resource) Targeting(roleID string) Resource {
	r.targetRoleID = roleID
	return r
}

// Locality returns the locality id if one is set.
func (r Resource) Locality() (int64, bool) {
	if r.localityID == nil {
		return 0, false
	}
	return *r.localityID, true
}

// TargetRole returns the target role id if one is set.
func (r Resource) TargetRole() (string, bool) {
	return r.targetRoleID, r.targetRoleID != ""
}
