package bot

import (
	"fmt"
	"sync"
	"time"
)

// LogCapacity 日志面板只保留最近 100 条
const LogCapacity = 100

// LogRing 是展示给用户的诊断日志环，带时间戳，最新在前
type LogRing struct {
	mu      sync.RWMutex
	entries []string
	clock   func() time.Time
}

func NewLogRing() *LogRing {
	return &LogRing{clock: time.Now}
}

// Add 在队首插入一条带时间戳的日志，超出容量的旧日志被丢弃
func (r *LogRing) Add(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := fmt.Sprintf("[%s] %s", r.clock().Format("15:04:05"), msg)
	r.entries = append([]string{entry}, r.entries...)
	if len(r.entries) > LogCapacity {
		r.entries = r.entries[:LogCapacity]
	}
}

// Entries 返回日志副本，最新在前
func (r *LogRing) Entries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}
