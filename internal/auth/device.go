package auth

import "strings"

const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

func DeviceFromUserAgent(userAgent string) string {
	switch {
	case userAgent == "":
		return DeviceUnknown
	case strings.Contains(userAgent, "Mobile"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}
