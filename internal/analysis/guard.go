package analysis

import "strings"

// Consistent reports whether a resource id is structurally plausible for
// the requested type. The check is a pure path-fragment heuristic over the
// lowercased id. An empty id passes (nothing to validate), and types the
// guard has no heuristic for pass as well: the guard fails open, and the
// dataset catalog in front of it is what rejects unknown types outright.
func Consistent(resourceType ResourceType, resourceID string) bool {
	if resourceID == "" {
		return true
	}
	id := strings.ToLower(resourceID)
	switch resourceType {
	case TypeVM:
		return strings.Contains(id, "/virtualmachines/") ||
			strings.Contains(id, "/compute/virtualmachines")
	case TypeStorage:
		return strings.Contains(id, "/storageaccounts/") ||
			strings.Contains(id, "/storage/")
	default:
		return true
	}
}
