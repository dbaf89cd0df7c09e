package model

import "github.com/secmon-lab/warden/pkg/domain/types"

// Group is a directory group with its member set. Groups are unique by ID;
// the display name carries the configured prefix.
type Group struct {
	ID          types.GroupID
	DisplayName string
	Members     []types.PrincipalID
}

// HasMember reports whether the principal is in the group's member set
func (g *Group) HasMember(id types.PrincipalID) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}
