package tools

// Classification partitions resolved VMs by guest tools status
type Classification struct {
	Installed    []Resolved
	NotInstalled []Resolved
}

// Classify splits resolved VMs on the inventory tools status. Only
// toolsNotInstalled lands in NotInstalled; outdated or stopped tools are
// left alone. Input order is preserved in both sets.
func Classify(res Resolution) Classification {
	var c Classification
	for _, r := range res.Resolved {
		if r.VM.ToolsStatus().Installed() {
			c.Installed = append(c.Installed, r)
		} else {
			c.NotInstalled = append(c.NotInstalled, r)
		}
	}
	return c
}

// Names returns the target names of entries, in order
func Names(entries []Resolved) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}
