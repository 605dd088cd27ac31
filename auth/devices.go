package auth

// DeviceClass partitions a user's sessions. The registry keeps at most one
// live session per class.
type DeviceClass string

const (
	DevicePhone  DeviceClass = "phone"
	DeviceLaptop DeviceClass = "laptop"
)

// ParseDeviceClass returns the device class for the given string and whether
// it is one of the accepted values. Anything other than "phone" or "laptop"
// is rejected before it can reach the registry.
func ParseDeviceClass(s string) (DeviceClass, bool) {
	switch DeviceClass(s) {
	case DevicePhone:
		return DevicePhone, true
	case DeviceLaptop:
		return DeviceLaptop, true
	default:
		return "", false
	}
}

// IsValid checks the class against the accepted set
func (d DeviceClass) IsValid() bool {
	_, ok := ParseDeviceClass(string(d))
	return ok
}
