package mqtt

import "strings"

// DataPointTopic returns <prefix>/<serial>/datapoint. Topic separators and
// wildcards in serial are replaced with underscores.
func DataPointTopic(prefix, serial string) string {
	serial = strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(serial)
	if serial == "" {
		serial = "unknown"
	}

	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return serial + "/datapoint"
	}

	return prefix + "/" + serial + "/datapoint"
}
