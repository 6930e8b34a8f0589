package utils

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// minBrowserMemory is roughly what one headless Chromium instance needs to
// render the order-history pages without thrashing.
const minBrowserMemory = 512 * 1024 * 1024

// SystemInfo is a snapshot of the resources relevant to launching a browser.
type SystemInfo struct {
	LogicalCores    int
	AvailableMemory uint64
	LowMemory       bool
}

// Preflight inspects the host before the browser is launched so a scrape on
// a starved machine fails loudly in the log instead of stalling mid-run.
func Preflight() SystemInfo {
	info := SystemInfo{LogicalCores: 2}

	if cores, err := cpu.Counts(true); err == nil {
		info.LogicalCores = cores
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.AvailableMemory = vm.Available
		info.LowMemory = vm.Available < minBrowserMemory
	}
	return info
}
