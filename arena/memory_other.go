//go:build !unix

package arena

func allocateMemory(capacity int, _ bool) ([]byte, func([]byte) error, bool, error) {
	return heapMemory(capacity), nil, false, nil
}
