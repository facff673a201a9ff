package parse

import "strings"

// Platform normalises an OS family reported by a device agent to the
// spelling used in the registry ("android" -> "Android", "iphone os" -> "iOS").
// Unknown values are returned trimmed but otherwise unchanged.
func Platform(raw string) string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "android":
		return "Android"
	case "ios", "iphone os", "ipados":
		return "iOS"
	case "windows", "windowsphone", "windows phone":
		return "Windows"
	case "":
		return ""
	}
	return s
}
