package intent

import (
	"crosspost/services/publish"
)

// Expand fans a validated intent out into one task spec per
// (platform, account) pair. Platform order follows the draft's selection
// order and account order within a platform is preserved, so task creation
// order is deterministic for a given draft.
func Expand(v *Validated) []publish.Spec {
	var specs []publish.Spec
	for _, p := range v.Platforms {
		for _, account := range p.AccountIDs {
			bundle := make(map[string]any, len(p.Bundle))
			for k, val := range p.Bundle {
				bundle[k] = val
			}
			specs = append(specs, publish.Spec{
				VideoID:      v.VideoID,
				AccountID:    account,
				Platform:     string(p.Platform),
				Bundle:       bundle,
				ScheduleTime: v.ScheduleTime,
			})
		}
	}
	return specs
}
