//go:build !linux

package admission

func hostMemory() uint64 {
	return 0
}
