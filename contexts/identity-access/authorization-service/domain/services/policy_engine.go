package services

import "strings"

// GrantsPermission reports whether the permission set satisfies the required
// permission. A held permission of the form "resource.*" matches every
// action on that resource.
func GrantsPermission(permissions []string, required string) bool {
	required = strings.TrimSpace(required)
	if required == "" {
		return false
	}
	for _, held := range permissions {
		if held == required {
			return true
		}
		if prefix, ok := strings.CutSuffix(held, ".*"); ok && strings.HasPrefix(required, prefix+".") {
			return true
		}
	}
	return false
}
