/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
)

// humanReadableSize formats response sizes for the request log in SI units.
func humanReadableSize(bytes int64) string {
	const unit = 1000

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	value := float64(bytes) / unit
	for _, prefix := range "kMGTP" {
		if value < unit {
			return fmt.Sprintf("%.1f %cB", value, prefix)
		}
		value /= unit
	}

	return fmt.Sprintf("%.1f EB", value)
}
