package logger

import "strings"

// MaskSessionID маскирует session_id в логах: виден только префикс UUID.
func MaskSessionID(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 8 {
		return "****"
	}
	return s[:8] + "***"
}
