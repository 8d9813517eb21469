// Package report prints the operator-facing run report.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nirarg/vmtools/internal/tools"
	"github.com/nirarg/vmtools/internal/vmware"
	pkgtypes "github.com/nirarg/vmtools/pkg/types"
)

const separator = "--------------------"

// Reporter writes run progress and summaries. It is not safe for concurrent use.
type Reporter struct {
	out   io.Writer
	good  *color.Color
	bad   *color.Color
	plain *color.Color
}

var _ tools.Progress = (*Reporter)(nil)

// New creates a reporter writing to out. Colors are emitted only when useColor is set.
func New(out io.Writer, useColor bool) *Reporter {
	r := &Reporter{
		out:   out,
		good:  color.New(color.FgGreen, color.Bold),
		bad:   color.New(color.FgRed, color.Bold),
		plain: color.New(color.FgWhite),
	}
	for _, c := range []*color.Color{r.good, r.bad, r.plain} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Intro announces the run mode
func (r *Reporter) Intro(install bool, listFile string) {
	if install {
		fmt.Fprintf(r.out, "Mounting the guest tools installer on VMs listed in %q that lack tools.\n", listFile)
	} else {
		fmt.Fprintf(r.out, "Querying guest tools status of VMs listed in %q (no changes will be made).\n", listFile)
	}
}

// Connecting reports the start of session setup
func (r *Reporter) Connecting(endpoint string) {
	r.plain.Fprintf(r.out, "[Connecting to %s]\n", endpoint)
}

// Inventory reports how many VMs the endpoint exposes
func (r *Reporter) Inventory(count int) {
	r.good.Fprintf(r.out, "[Done] found %d virtual machines\n", count)
	r.plain.Fprintf(r.out, "\n%s Locating VMs %s\n\n", separator, separator)
}

// Resolution reports the matched, unmatched and duplicate target names
func (r *Reporter) Resolution(res tools.Resolution, requested int) {
	r.good.Fprintf(r.out, "[Done] matched %d of %d requested VMs\n", len(res.Resolved), requested)

	for _, name := range res.Duplicates {
		r.bad.Fprintf(r.out, "Warning: %q is listed more than once, processing it once\n", name)
	}

	if len(res.Unresolved) == 0 {
		return
	}

	r.bad.Fprintln(r.out, "Unresolved names:")
	for _, u := range res.Unresolved {
		switch u.Reason {
		case pkgtypes.ReasonAmbiguous:
			r.bad.Fprintf(r.out, "  %s (ambiguous: %d VMs share this name)\n", u.Name, u.Matches)
		default:
			r.bad.Fprintf(r.out, "  %s\n", u.Name)
		}
	}
	fmt.Fprintln(r.out, "Verify the list contains inventory VM names and not IP addresses.")
}

// Classification prints the tools status of every resolved VM
func (r *Reporter) Classification(res tools.Resolution) {
	if len(res.Resolved) == 0 {
		return
	}

	fmt.Fprintf(r.out, "\nQuerying guest tools status of: %s\n\n", strings.Join(tools.Names(res.Resolved), ", "))
	for _, entry := range res.Resolved {
		status := entry.VM.ToolsStatus()
		r.plain.Fprintln(r.out, separator)
		fmt.Fprintf(r.out, "Host : %s\n", entry.Name)
		fmt.Fprint(r.out, "VMware-tools : ")
		if status.Installed() {
			r.good.Fprintln(r.out, status.String())
		} else {
			r.bad.Fprintln(r.out, status.String())
		}
		fmt.Fprintln(r.out)
	}
}

// PreMount lists which VMs are left alone and which will get the installer
func (r *Reporter) PreMount(c tools.Classification) {
	if len(c.Installed) > 0 {
		fmt.Fprintf(r.out, "Ignoring %s as tools are already installed\n", strings.Join(tools.Names(c.Installed), ", "))
	}
	if len(c.NotInstalled) == 0 {
		fmt.Fprintln(r.out, "No VMs need the tools installer.")
		return
	}
	fmt.Fprintf(r.out, "Mounting the installer on: %s\n\n", strings.Join(tools.Names(c.NotInstalled), ", "))
}

// MountStarted implements tools.Progress
func (r *Reporter) MountStarted(name string) {
	r.plain.Fprintln(r.out, separator)
	fmt.Fprintf(r.out, "Mounting tools on %s ....\n", name)
}

// MountFinished implements tools.Progress
func (r *Reporter) MountFinished(result tools.MountResult) {
	switch result.Outcome {
	case pkgtypes.MountSucceeded:
		r.good.Fprintln(r.out, "[Done]")
	case pkgtypes.MountSkipped:
		r.bad.Fprintf(r.out, "[Skipped] %s: %s\n", result.Name, result.Reason)
	default:
		r.bad.Fprintf(r.out, "[Failed] %s: %s\n", result.Name, result.Reason)
	}
	fmt.Fprintln(r.out)
}

// Summary prints the final mount summary
func (r *Reporter) Summary(results []tools.MountResult) {
	succeeded, failed := tools.Summarize(results)

	r.plain.Fprintln(r.out, "Summary:")
	if len(failed) > 0 {
		r.bad.Fprintln(r.out, "Failed:")
		for _, f := range failed {
			r.bad.Fprintf(r.out, "  %s (%s: %s)\n", f.Name, f.Outcome, f.Reason)
		}
	}
	if len(succeeded) > 0 {
		r.good.Fprintln(r.out, "Succeeded:")
		for _, s := range succeeded {
			r.good.Fprintf(r.out, "  %s\n", s.Name)
		}
	}
	if len(results) == 0 {
		fmt.Fprintln(r.out, "  nothing to mount")
	}
}

// QuerySummary prints the classification totals for query-only runs
func (r *Reporter) QuerySummary(c tools.Classification, unresolved int) {
	r.plain.Fprintln(r.out, "Summary:")
	r.good.Fprintf(r.out, "  tools installed:     %d\n", len(c.Installed))
	r.bad.Fprintf(r.out, "  tools not installed: %d\n", len(c.NotInstalled))
	if unresolved > 0 {
		r.bad.Fprintf(r.out, "  not found:           %d\n", unresolved)
	}
}

// Fatal prints a run-aborting error, naming its kind
func (r *Reporter) Fatal(err error) {
	var msg string
	switch vmware.KindOf(err) {
	case vmware.KindConnectivity:
		msg = "Could not reach the vSphere endpoint"
	case vmware.KindAuth:
		msg = "vSphere rejected the supplied credentials"
	case vmware.KindCredentials:
		msg = "Invalid credentials"
	case vmware.KindInventory:
		msg = "Could not enumerate virtual machines"
	default:
		msg = "Error"
	}
	r.bad.Fprintf(r.out, "%s: %v\n", msg, err)
}
