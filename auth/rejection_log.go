package auth

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const rejectionLogSize = 4096

// rejectionLog suppresses repeated log lines for the same rejected token so a
// client retrying a dead cookie cannot flood the logs.
type rejectionLog struct {
	mu   sync.Mutex // makes the check and the insert one step
	seen *expirable.LRU[string, struct{}]
}

func newRejectionLog(window time.Duration) *rejectionLog {
	if window <= 0 {
		return nil
	}
	return &rejectionLog{seen: expirable.NewLRU[string, struct{}](rejectionLogSize, nil, window)}
}

// allow reports whether key should be logged now. A nil rejectionLog allows
// everything.
func (r *rejectionLog) allow(key string) bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen.Contains(key) {
		return false
	}
	r.seen.Add(key, struct{}{})
	return true
}
