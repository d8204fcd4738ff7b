//go:build !linux

package sys

// PinToCore is a no-op off Linux; affinity control is best-effort.
func PinToCore(coreID int) error {
	return nil
}
