package arena

func heapMemory(capacity int) []byte {
	return make([]byte, capacity)
}
