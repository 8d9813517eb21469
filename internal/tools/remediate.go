package tools

import (
	"context"

	pkgtypes "github.com/nirarg/vmtools/pkg/types"
	"github.com/sirupsen/logrus"
)

const (
	ReasonPoweredOff    = "virtual machine must be powered on to mount the tools installer"
	ReasonMountRejected = "mount rejected, is the tools installer already mounted?"
	ReasonInterrupted   = "run interrupted before the mount completed"
)

// MountResult is the terminal outcome of one installer mount
type MountResult struct {
	Name    string
	Outcome pkgtypes.MountOutcome
	Reason  string
	Err     error
}

// Progress receives per-VM mount events as they happen
type Progress interface {
	MountStarted(name string)
	MountFinished(result MountResult)
}

// Remediator mounts the guest tools installer on VMs, one at a time
type Remediator struct {
	logger   *logrus.Logger
	progress Progress
}

// NewRemediator creates a remediator. progress may be nil.
func NewRemediator(logger *logrus.Logger, progress Progress) *Remediator {
	return &Remediator{
		logger:   logger,
		progress: progress,
	}
}

// Mount attempts the installer mount on each VM in order and returns one
// result per VM. A failed mount never stops the batch. Once ctx is done the
// remaining VMs are recorded as failed without a remote call.
func (r *Remediator) Mount(ctx context.Context, vms []Resolved) []MountResult {
	results := make([]MountResult, 0, len(vms))

	for _, target := range vms {
		var result MountResult
		if err := ctx.Err(); err != nil {
			result = MountResult{
				Name:    target.Name,
				Outcome: pkgtypes.MountFailed,
				Reason:  ReasonInterrupted,
				Err:     err,
			}
		} else {
			if r.progress != nil {
				r.progress.MountStarted(target.Name)
			}
			result = r.mountOne(ctx, target)
		}

		if r.progress != nil {
			r.progress.MountFinished(result)
		}
		results = append(results, result)
	}

	return results
}

func (r *Remediator) mountOne(ctx context.Context, target Resolved) MountResult {
	log := r.logger.WithField("vm_name", target.Name)
	log.Info("Mounting tools installer")

	err := target.VM.MountToolsInstaller(ctx)
	if err == nil {
		log.Info("Tools installer mounted")
		return MountResult{Name: target.Name, Outcome: pkgtypes.MountSucceeded}
	}

	if ctx.Err() != nil {
		log.WithError(err).Warn("Tools installer mount interrupted")
		return MountResult{
			Name:    target.Name,
			Outcome: pkgtypes.MountFailed,
			Reason:  ReasonInterrupted,
			Err:     err,
		}
	}

	state, stateErr := target.VM.PowerState(ctx)
	if stateErr != nil {
		log.WithError(stateErr).Debug("Power state read failed, using inventory snapshot")
	}

	log = log.WithFields(logrus.Fields{
		"power_state": state,
		"error":       err,
	})

	if state == pkgtypes.PowerStatePoweredOff {
		log.Warn("Skipping powered off VM")
		return MountResult{
			Name:    target.Name,
			Outcome: pkgtypes.MountSkipped,
			Reason:  ReasonPoweredOff,
			Err:     err,
		}
	}

	log.Warn("Tools installer mount failed")
	return MountResult{
		Name:    target.Name,
		Outcome: pkgtypes.MountFailed,
		Reason:  ReasonMountRejected,
		Err:     err,
	}
}

// Summarize splits results into succeeded and not succeeded. Skipped VMs
// count as not succeeded.
func Summarize(results []MountResult) (succeeded, failed []MountResult) {
	for _, result := range results {
		if result.Outcome == pkgtypes.MountSucceeded {
			succeeded = append(succeeded, result)
		} else {
			failed = append(failed, result)
		}
	}
	return succeeded, failed
}
