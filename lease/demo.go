package lease

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed demo/*.json
var demoFS embed.FS

// ErrUnknownDemo is returned by Demo for names without a fixture.
var ErrUnknownDemo = errors.New("unknown demo report")

// DemoNames lists the canned reports, sorted.
func DemoNames() []string {
	entries, err := demoFS.ReadDir("demo")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// DemoJSON returns the raw fixture bytes.
func DemoJSON(name string) ([]byte, error) {
	data, err := demoFS.ReadFile(path.Join("demo", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDemo, name)
	}
	return data, nil
}

// Demo decodes the named canned report. Fixtures are validated against
// the report schema on every load.
func Demo(name string) (*Report, error) {
	data, err := DemoJSON(name)
	if err != nil {
		return nil, err
	}
	r, err := DecodeReport(data)
	if err != nil {
		return nil, fmt.Errorf("demo %s: %w", name, err)
	}
	return r, nil
}
