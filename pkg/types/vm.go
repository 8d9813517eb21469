package types

// VMPowerState represents possible VM power states
type VMPowerState string

const (
	PowerStatePoweredOn  VMPowerState = "poweredOn"
	PowerStatePoweredOff VMPowerState = "poweredOff"
	PowerStateSuspended  VMPowerState = "suspended"
)

// VMToolsStatus represents possible VMware Tools statuses
type VMToolsStatus string

const (
	ToolsStatusNotInstalled VMToolsStatus = "toolsNotInstalled"
	ToolsStatusNotRunning   VMToolsStatus = "toolsNotRunning"
	ToolsStatusOld          VMToolsStatus = "toolsOld"
	ToolsStatusOk           VMToolsStatus = "toolsOk"
)

// Installed reports whether the status counts as installed. Only a confirmed
// toolsNotInstalled is treated as missing; toolsOld, toolsNotRunning and an
// unreported status all count as installed.
func (s VMToolsStatus) Installed() bool {
	return s != ToolsStatusNotInstalled
}

// String returns the status, or "unknown" when vCenter reported none.
func (s VMToolsStatus) String() string {
	if s == "" {
		return "unknown"
	}
	return string(s)
}

// MountOutcome is the terminal state of a single installer mount attempt
type MountOutcome string

const (
	MountSucceeded MountOutcome = "succeeded"
	MountFailed    MountOutcome = "failed"
	MountSkipped   MountOutcome = "skipped"
)

// UnresolvedReason explains why a target name did not map to exactly one VM
type UnresolvedReason string

const (
	ReasonNotFound  UnresolvedReason = "not-found"
	ReasonAmbiguous UnresolvedReason = "ambiguous"
)
