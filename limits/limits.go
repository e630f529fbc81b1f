// Package limits derives worker resource ceilings from the configured
// memory limit.
package limits

import "strconv"

// WorkerLimits bounds the memory of a spawned worker. The three bounds are
// applied to the worker's old-generation heap, young-generation heap, and
// stack respectively.
type WorkerLimits struct {
	// OldGenMB is the old-generation heap bound in megabytes.
	OldGenMB int

	// YoungGenMB is the young-generation heap bound in megabytes.
	YoungGenMB int

	// StackMB is the stack size bound in megabytes.
	StackMB int
}

// Environment variable names consumed by the worker runtime harness.
const (
	EnvMaxOldGenMB   = "RUNBOX_MAX_OLD_GEN_MB"
	EnvMaxYoungGenMB = "RUNBOX_MAX_YOUNG_GEN_MB"
	EnvStackSizeMB   = "RUNBOX_STACK_SIZE_MB"
)

// CeilingMB computes the memory ceiling in megabytes from a byte-valued
// limit: bytes / 1024, floored. A limit of 512000 bytes yields 500.
func CeilingMB(bytes int64) int {
	if bytes <= 0 {
		return 0
	}
	return int(bytes / 1024)
}

// FromBytes derives worker limits from a single byte-valued memory limit.
// The same ceiling is applied to all three bounds; the configuration exposes
// one tunable, so the bounds are not independent here.
func FromBytes(bytes int64) WorkerLimits {
	mb := CeilingMB(bytes)
	return WorkerLimits{
		OldGenMB:   mb,
		YoungGenMB: mb,
		StackMB:    mb,
	}
}

// Environ renders the limits as environment variables for the worker
// runtime. Zero-valued bounds are omitted, leaving the runtime default.
func (l WorkerLimits) Environ() map[string]string {
	env := make(map[string]string, 3)
	if l.OldGenMB > 0 {
		env[EnvMaxOldGenMB] = strconv.Itoa(l.OldGenMB)
	}
	if l.YoungGenMB > 0 {
		env[EnvMaxYoungGenMB] = strconv.Itoa(l.YoungGenMB)
	}
	if l.StackMB > 0 {
		env[EnvStackSizeMB] = strconv.Itoa(l.StackMB)
	}
	return env
}
