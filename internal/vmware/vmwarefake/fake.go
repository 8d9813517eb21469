// Package vmwarefake provides in-memory stand-ins for vmware.VirtualMachine
// and vmware.VMLister.
package vmwarefake

import (
	"context"
	"sync"

	"github.com/nirarg/vmtools/internal/vmware"
	pkgtypes "github.com/nirarg/vmtools/pkg/types"
)

// VM is a scriptable vmware.VirtualMachine
type VM struct {
	VMName   string
	Status   pkgtypes.VMToolsStatus
	Power    pkgtypes.VMPowerState
	MountErr error
	PowerErr error
	// OnMount, if set, runs at the start of every MountToolsInstaller call.
	OnMount  func()

	mu         sync.Mutex
	mountCalls int
}

var _ vmware.VirtualMachine = (*VM)(nil)

func (v *VM) Name() string { return v.VMName }

func (v *VM) ToolsStatus() pkgtypes.VMToolsStatus { return v.Status }

func (v *VM) PowerState(context.Context) (pkgtypes.VMPowerState, error) {
	return v.Power, v.PowerErr
}

func (v *VM) MountToolsInstaller(ctx context.Context) error {
	if v.OnMount != nil {
		v.OnMount()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mountCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.MountErr
}

// MountCalls returns how many times MountToolsInstaller was invoked
func (v *VM) MountCalls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mountCalls
}

// Lister is a vmware.VMLister over a fixed set of VMs
type Lister struct {
	VMs []*VM
	Err error
}

var _ vmware.VMLister = (*Lister)(nil)

func (l *Lister) ListVMs(context.Context) ([]vmware.VirtualMachine, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return Handles(l.VMs...), nil
}

// Handles converts fakes to the interface slice the pipeline consumes
func Handles(vms ...*VM) []vmware.VirtualMachine {
	out := make([]vmware.VirtualMachine, 0, len(vms))
	for _, vm := range vms {
		out = append(out, vm)
	}
	return out
}
