package instance

import "github.com/cakehouse/storefront/pkg/env"

// GetID returns the process instance identifier used in startup logs.
func GetID() string {
	return env.First("local", "DYNO", "INSTANCE_ID", "HOSTNAME")
}
