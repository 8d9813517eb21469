package vmware

import (
	"context"
	"fmt"

	pkgtypes "github.com/nirarg/vmtools/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// VirtualMachine is a session-scoped handle to a VM in the inventory.
type VirtualMachine interface {
	Name() string
	ToolsStatus() pkgtypes.VMToolsStatus
	PowerState(ctx context.Context) (pkgtypes.VMPowerState, error)
	MountToolsInstaller(ctx context.Context) error
}

// VMLister enumerates every VM visible to the session
type VMLister interface {
	ListVMs(ctx context.Context) ([]VirtualMachine, error)
}

var (
	_ VirtualMachine = (*vmHandle)(nil)
	_ VMLister       = (*VMService)(nil)
)

// vmHandle pairs a managed object with the summary read at inventory time.
type vmHandle struct {
	obj     *object.VirtualMachine
	summary types.VirtualMachineSummary
}

func (h *vmHandle) Name() string {
	if h.summary.Config.Name != "" {
		return h.summary.Config.Name
	}
	return h.obj.Name()
}

func (h *vmHandle) ToolsStatus() pkgtypes.VMToolsStatus {
	if h.summary.Guest == nil {
		return ""
	}
	return pkgtypes.VMToolsStatus(h.summary.Guest.ToolsStatus)
}

// PowerState reads the current power state from vCenter. If that read fails
// the inventory snapshot is returned together with the error.
func (h *vmHandle) PowerState(ctx context.Context) (pkgtypes.VMPowerState, error) {
	state, err := h.obj.PowerState(ctx)
	if err != nil {
		return pkgtypes.VMPowerState(h.summary.Runtime.PowerState), err
	}
	return pkgtypes.VMPowerState(state), nil
}

func (h *vmHandle) MountToolsInstaller(ctx context.Context) error {
	return h.obj.MountToolsInstaller(ctx)
}

// VMService provides VM discovery over an open session
type VMService struct {
	client *Client
	logger *logrus.Logger
}

// NewVMService creates a new VM service instance
func NewVMService(client *Client, logger *logrus.Logger) *VMService {
	return &VMService{
		client: client,
		logger: logger,
	}
}

// ListVMs returns a handle for every VM under the root folder, recursively,
// in the order vCenter reports them. Failures are *Error with KindInventory.
func (s *VMService) ListVMs(ctx context.Context) ([]VirtualMachine, error) {
	s.logger.Info("Starting VM discovery")

	client, err := s.client.VimClient()
	if err != nil {
		return nil, newError(KindInventory, "list", err)
	}

	manager := view.NewManager(client)
	containerView, err := manager.CreateContainerView(ctx, client.ServiceContent.RootFolder, []string{"VirtualMachine"}, true)
	if err != nil {
		return nil, newError(KindInventory, "list", fmt.Errorf("failed to create container view: %w", err))
	}
	defer func() {
		if err := containerView.Destroy(ctx); err != nil {
			s.logger.WithError(err).Debug("Failed to destroy container view")
		}
	}()

	var vmProperties []mo.VirtualMachine
	if err := containerView.Retrieve(ctx, []string{"VirtualMachine"}, []string{"summary"}, &vmProperties); err != nil {
		return nil, newError(KindInventory, "list", fmt.Errorf("failed to retrieve VM properties: %w", err))
	}

	vms := make([]VirtualMachine, 0, len(vmProperties))
	for _, vmProp := range vmProperties {
		vms = append(vms, &vmHandle{
			obj:     object.NewVirtualMachine(client, vmProp.Reference()),
			summary: vmProp.Summary,
		})
	}

	s.logger.WithField("vm_count", len(vms)).Info("VM discovery completed")
	return vms, nil
}
