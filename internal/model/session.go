package model

import "time"

// Triple — ключ, по которому ищется активная сессия устройства.
type Triple struct {
	Username   string `json:"username"`
	DeviceName string `json:"deviceName"`
	IPAddress  string `json:"ipAddress"`
}

// Session — строка user_sessions. LogoutTime == nil означает активную сессию.
// Метки времени — в поясе сервиса (см. internal/clock).
type Session struct {
	ID         string     `json:"session_id"`
	Username   string     `json:"username"`
	DeviceName string     `json:"device_name"`
	IPAddress  string     `json:"ip_address"`
	LoginTime  time.Time  `json:"login_time"`
	LastActive time.Time  `json:"last_active"`
	LogoutTime *time.Time `json:"logout_time,omitempty"`
}

func (s *Session) Active() bool { return s.LogoutTime == nil }

func (s *Session) Triple() Triple {
	return Triple{Username: s.Username, DeviceName: s.DeviceName, IPAddress: s.IPAddress}
}
