package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"credence/internal/config"
	"credence/internal/services/trustmark"
)

// Requirement defines an external dependency Credence relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckScript verifies the watermark decoder script exists on disk. The
// Python package requirements cannot be verified without invoking the
// runtime, so the install hint rides along as the description.
func CheckScript(name, path string) Status {
	status := Status{
		Name:        name,
		Command:     strings.TrimSpace(path),
		Description: trustmark.InstallHint,
		Optional:    true,
	}
	if status.Command == "" {
		status.Detail = "script path not configured"
		return status
	}
	info, err := os.Stat(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("script %q not found", status.Command)
		return status
	}
	if info.IsDir() {
		status.Detail = fmt.Sprintf("script path %q is a directory", status.Command)
		return status
	}
	status.Available = true
	return status
}

// CheckAll evaluates every external tool the detection waterfall shells out
// to. Watermark dependencies are optional: the waterfall degrades without
// them instead of failing.
func CheckAll(cfg *config.Config) []Status {
	if cfg == nil {
		return nil
	}

	results := CheckBinaries([]Requirement{
		{
			Name:        "c2patool",
			Command:     cfg.Reader.Binary,
			Description: "Required for reading embedded manifests",
		},
		{
			Name:        "Python runtime",
			Command:     cfg.Watermark.Runtime,
			Description: "Required for watermark decoding",
			Optional:    true,
		},
	})
	results = append(results, CheckScript("Decoder script", cfg.Watermark.Script))
	return results
}
