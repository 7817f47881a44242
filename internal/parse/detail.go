package parse

import "strings"

// Detail parses the per-job detail query output into a key/value map. The
// first line is a banner and is skipped; remaining lines split on the first
// colon, and lines without one are ignored. An empty map means the output
// carried nothing usable.
func Detail(text string) map[string]string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}

	detail := make(map[string]string)
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		detail[key] = strings.TrimSpace(value)
	}
	return detail
}
