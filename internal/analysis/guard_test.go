package analysis

import "testing"

func TestConsistent(t *testing.T) {
	vmID := "/subscriptions/s1/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/web-01"
	storageID := "/subscriptions/s1/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/logs01"

	cases := []struct {
		name         string
		resourceType ResourceType
		resourceID   string
		want         bool
	}{
		{"vm id for vm", TypeVM, vmID, true},
		{"vm id for storage", TypeStorage, vmID, false},
		{"storage id for storage", TypeStorage, storageID, true},
		{"storage id for vm", TypeVM, storageID, false},
		{"empty id passes", TypeVM, "", true},
		{"unguarded type passes", TypeEC2, "i-0abc123", true},
		{"unknown type fails open", ResourceType("disk"), vmID, true},
		{"compute path variant", TypeVM, "/providers/microsoft.compute/virtualmachines", true},
	}

	for _, tc := range cases {
		if got := Consistent(tc.resourceType, tc.resourceID); got != tc.want {
			t.Fatalf("%s: Consistent(%q, %q) = %v, want %v", tc.name, tc.resourceType, tc.resourceID, got, tc.want)
		}
	}
}
