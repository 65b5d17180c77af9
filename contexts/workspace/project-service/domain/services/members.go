package services

import (
	"sort"

	"crewdeck/contexts/workspace/project-service/domain/entities"
)

// MemberGroup is one role bucket in a grouped member listing.
type MemberGroup struct {
	Role    string                `json:"role"`
	Members []entities.TeamMember `json:"members"`
}

// GroupMembers prepares a member list for display: active rows only,
// one row per user, sorted by role rank then join time, grouped by role.
func GroupMembers(members []entities.TeamMember) []MemberGroup {
	active := make([]entities.TeamMember, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, member := range members {
		if member.Status != entities.MemberStatusActive {
			continue
		}
		if _, dup := seen[member.UserID]; dup {
			continue
		}
		seen[member.UserID] = struct{}{}
		active = append(active, member)
	}

	sort.SliceStable(active, func(i, j int) bool {
		ri, rj := entities.RoleRank(active[i].Role), entities.RoleRank(active[j].Role)
		if ri != rj {
			return ri < rj
		}
		return active[i].JoinedAt.Before(active[j].JoinedAt)
	})

	groups := make([]MemberGroup, 0, 4)
	for _, member := range active {
		if len(groups) == 0 || groups[len(groups)-1].Role != member.Role {
			groups = append(groups, MemberGroup{Role: member.Role})
		}
		last := len(groups) - 1
		groups[last].Members = append(groups[last].Members, member)
	}
	return groups
}
