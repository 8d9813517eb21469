// Package tools resolves target hostnames to inventory VMs, classifies their
// guest tools status and mounts the tools installer where it is missing.
package tools

import (
	"github.com/nirarg/vmtools/internal/vmware"
	pkgtypes "github.com/nirarg/vmtools/pkg/types"
)

// Resolved is a target name bound to exactly one inventory VM
type Resolved struct {
	Name string
	VM   vmware.VirtualMachine
}

// Unresolved is a target name that did not match exactly one VM
type Unresolved struct {
	Name    string
	Reason  pkgtypes.UnresolvedReason
	Matches int
}

// Resolution is the outcome of matching a target list against the inventory.
// Resolved and Unresolved keep target list order; every distinct target name
// is in exactly one of them.
type Resolution struct {
	Resolved   []Resolved
	Unresolved []Unresolved
	// Duplicates lists repeated target names in the order they were seen.
	// Only the first occurrence of a name is resolved.
	Duplicates []string
}

// Resolve matches names against the inventory by exact, case-sensitive VM
// name. No normalization is applied, so callers must pass inventory names,
// not IP addresses.
func Resolve(vms []vmware.VirtualMachine, names []string) Resolution {
	byName := make(map[string][]vmware.VirtualMachine, len(vms))
	for _, vm := range vms {
		byName[vm.Name()] = append(byName[vm.Name()], vm)
	}

	var res Resolution
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			res.Duplicates = append(res.Duplicates, name)
			continue
		}
		seen[name] = true

		matches := byName[name]
		switch len(matches) {
		case 0:
			res.Unresolved = append(res.Unresolved, Unresolved{
				Name:   name,
				Reason: pkgtypes.ReasonNotFound,
			})
		case 1:
			res.Resolved = append(res.Resolved, Resolved{Name: name, VM: matches[0]})
		default:
			res.Unresolved = append(res.Unresolved, Unresolved{
				Name:    name,
				Reason:  pkgtypes.ReasonAmbiguous,
				Matches: len(matches),
			})
		}
	}

	return res
}
