package models

import "fmt"

// VRAMUsage is the GPU memory telemetry reported by the backend, in MB
type VRAMUsage struct {
	UsedMB  int64
	TotalMB int64
}

func (v VRAMUsage) String() string {
	return fmt.Sprintf("VRAM Usage: %d / %d MB", v.UsedMB, v.TotalMB)
}

// Ratio returns used/total, or 0 when the total is unknown.
func (v VRAMUsage) Ratio() float64 {
	if v.TotalMB <= 0 {
		return 0
	}
	return float64(v.UsedMB) / float64(v.TotalMB)
}
