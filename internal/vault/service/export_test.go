package service

// LockedKeys reports how many keys hold a lock entry in t.
func LockedKeys(t *KeyedTx) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
