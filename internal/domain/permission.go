package domain

type PermissionKind string

const (
	PermissionCamera     PermissionKind = "camera"
	PermissionMicrophone PermissionKind = "microphone"
)

// PermissionResult maps each requested kind to whether it was granted.
type PermissionResult map[PermissionKind]bool

func (r PermissionResult) AllGranted() bool {
	for _, ok := range r {
		if !ok {
			return false
		}
	}
	return true
}
