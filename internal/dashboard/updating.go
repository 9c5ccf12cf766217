package dashboard

import "sync"

// updatingSet tracks application ids with an optimistic mutation in
// flight. Acquisition is the single-flight guard: a second mutation on
// the same id is rejected until the first settles.
type updatingSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newUpdatingSet() *updatingSet {
	return &updatingSet{ids: make(map[string]struct{})}
}

func (u *updatingSet) tryAcquire(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, held := u.ids[id]; held {
		return false
	}
	u.ids[id] = struct{}{}
	return true
}

func (u *updatingSet) release(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.ids, id)
}

func (u *updatingSet) has(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, held := u.ids[id]
	return held
}
