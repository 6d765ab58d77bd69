package api

import "strings"

func splitETags(header string) []string {
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
