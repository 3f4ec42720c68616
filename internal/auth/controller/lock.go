package controller

import "sync"

// operationLock serializes auth and biometric operations. Acquisition is
// fail-fast: a second request while the lock is held is rejected, never
// queued, so the UI can immediately report "busy".
type operationLock struct {
	mu     sync.Mutex
	holder string
}

// tryAcquire takes the lock for the named operation. Returns false without
// blocking when another operation holds it.
func (l *operationLock) tryAcquire(op string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder != "" {
		return false
	}
	l.holder = op
	return true
}

// release frees the lock. Callers must pair every successful tryAcquire with
// exactly one release on every exit path; use defer right after acquiring.
func (l *operationLock) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holder = ""
}

// current reports the in-flight operation name, "" when idle.
func (l *operationLock) current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}
