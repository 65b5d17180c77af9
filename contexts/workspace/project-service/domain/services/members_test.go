package services

import (
	"testing"
	"time"

	"crewdeck/contexts/workspace/project-service/domain/entities"
)

func member(userID, role, status string, joined time.Time) entities.TeamMember {
	return entities.TeamMember{
		MemberID:  "m-" + userID,
		ProjectID: "p-1",
		UserID:    userID,
		Role:      role,
		Status:    status,
		JoinedAt:  joined,
	}
}

func TestGroupMembersOrdersByRoleRankThenJoinTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	groups := GroupMembers([]entities.TeamMember{
		member("u-viewer", entities.MemberRoleViewer, entities.MemberStatusActive, base),
		member("u-member-late", entities.MemberRoleMember, entities.MemberStatusActive, base.Add(2*time.Hour)),
		member("u-owner", entities.MemberRoleOwner, entities.MemberStatusActive, base.Add(time.Hour)),
		member("u-member-early", entities.MemberRoleMember, entities.MemberStatusActive, base),
	})

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Role != entities.MemberRoleOwner {
		t.Fatalf("expected owner group first, got %s", groups[0].Role)
	}
	if groups[1].Role != entities.MemberRoleMember {
		t.Fatalf("expected member group second, got %s", groups[1].Role)
	}
	if groups[1].Members[0].UserID != "u-member-early" {
		t.Fatalf("expected earlier join first, got %s", groups[1].Members[0].UserID)
	}
}

func TestGroupMembersSkipsRemovedAndDuplicates(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	groups := GroupMembers([]entities.TeamMember{
		member("u-1", entities.MemberRoleOwner, entities.MemberStatusActive, base),
		member("u-1", entities.MemberRoleMember, entities.MemberStatusActive, base.Add(time.Hour)),
		member("u-2", entities.MemberRoleMember, entities.MemberStatusRemoved, base),
	})

	if len(groups) != 1 {
		t.Fatalf("expected single owner group, got %d groups", len(groups))
	}
	if len(groups[0].Members) != 1 {
		t.Fatalf("expected duplicate user collapsed, got %d members", len(groups[0].Members))
	}
}

func TestGroupMembersEmpty(t *testing.T) {
	if groups := GroupMembers(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}
