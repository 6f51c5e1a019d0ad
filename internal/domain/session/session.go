package session

import (
	"strings"
	"time"
)

const maxDeviceIDLen = 128

// Session identifies one client device talking to the cart API.
type Session struct {
	ID        string
	DeviceID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func NormalizeDeviceID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxDeviceIDLen || strings.ContainsAny(id, "\r\n\t") {
		return "", ErrInvalidDevice
	}
	return id, nil
}
