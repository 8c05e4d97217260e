package models

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/temirov/llm-wrapper/internal/fsops"
)

const (
	procMeminfoPath       = "/proc/meminfo"
	memTotalField         = "MemTotal:"
	kibibyte              = 1024
	mebibytesPerGigabyte  = 1024
	detectionTimeout      = 3 * time.Second
	nvidiaSMICommand      = "nvidia-smi"
	sysctlCommand         = "sysctl"
	darwinMemorySizeKey   = "hw.memsize"
	darwinOperatingSystem = "darwin"
	appleSiliconArch      = "arm64"
)

var nvidiaSMIArgs = []string{"--query-gpu=memory.total", "--format=csv,noheader,nounits"}

// CommandRunner runs a probe command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// HostProbe detects memory on the running machine. Linux RAM comes from
// /proc/meminfo, macOS RAM from sysctl, and discrete VRAM from nvidia-smi.
// Apple Silicon shares RAM with the GPU, so its VRAM equals total RAM.
type HostProbe struct {
	FS     fsops.FS
	Run    CommandRunner
	GOOS   string
	GOARCH string
}

func NewHostProbe() HostProbe {
	return HostProbe{FS: fsops.NewOS(), Run: execRunner, GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
}

// Detector wires the probe into a Detector.
func (probe HostProbe) Detector() Detector {
	return Detector{VRAMGigabytes: probe.VRAMGigabytes, TotalRAMBytes: probe.TotalRAMBytes}
}

func (probe HostProbe) run(name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), detectionTimeout)
	defer cancel()
	runner := probe.Run
	if runner == nil {
		runner = execRunner
	}
	return runner(ctx, name, args...)
}

func (probe HostProbe) TotalRAMBytes() (uint64, bool) {
	if probe.GOOS == darwinOperatingSystem {
		output, err := probe.run(sysctlCommand, "-n", darwinMemorySizeKey)
		if err != nil {
			return 0, false
		}
		value, parseErr := strconv.ParseUint(strings.TrimSpace(string(output)), 10, 64)
		return value, parseErr == nil && value > 0
	}
	if probe.FS == nil {
		return 0, false
	}
	content, err := probe.FS.ReadFile(procMeminfoPath)
	if err != nil {
		return 0, false
	}
	return parseMemTotal(content)
}

func parseMemTotal(content []byte) (uint64, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != memTotalField {
			continue
		}
		kibibytes, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kibibytes * kibibyte, true
	}
	return 0, false
}

func (probe HostProbe) VRAMGigabytes() (float64, bool) {
	if probe.GOOS == darwinOperatingSystem && probe.GOARCH == appleSiliconArch {
		ramBytes, found := probe.TotalRAMBytes()
		return float64(ramBytes) / bytesPerGigabyte, found
	}
	output, err := probe.run(nvidiaSMICommand, nvidiaSMIArgs...)
	if err != nil {
		return 0, false
	}
	return parseNvidiaMemory(output)
}

// parseNvidiaMemory returns the largest single GPU, in gigabytes.
func parseNvidiaMemory(output []byte) (float64, bool) {
	largest := 0.0
	found := false
	for _, line := range strings.Split(string(output), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		mebibytes, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			continue
		}
		found = true
		if gigabytes := mebibytes / mebibytesPerGigabyte; gigabytes > largest {
			largest = gigabytes
		}
	}
	return largest, found
}
