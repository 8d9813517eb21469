// Package targets reads the list of VM hostnames a run operates on.
package targets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// List is the ordered set of hostnames from the input file. Entries are
// trimmed and never empty.
type List []string

// Parse reads one hostname per line. Surrounding whitespace is trimmed and
// blank lines are skipped; everything else is kept verbatim, including case.
func Parse(r io.Reader) (List, error) {
	var list List

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		list = append(list, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read VM list: %w", err)
	}

	return list, nil
}

// Load reads the VM list file at path
func Load(path string) (List, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open VM list file: %w", err)
	}
	defer file.Close()

	list, err := Parse(file)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("VM list file %s contains no hostnames", path)
	}

	return list, nil
}
