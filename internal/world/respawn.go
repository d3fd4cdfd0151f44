package world

import (
	"container/heap"
	"time"

	"github.com/openwow/wowgo/internal/model"
)

// scheduledRespawn is one pending wakeup owned by the map scheduler (pooled
// respawn mode).
type scheduledRespawn struct {
	spawnID uint64
	entry   uint32
	at      time.Time
	gridID  uint32

	index int
}

// respawnQueue is a min-heap ordered by wakeup deadline.
type respawnQueue []*scheduledRespawn

func (q respawnQueue) Len() int           { return len(q) }
func (q respawnQueue) Less(i, j int) bool { return q[i].at.Before(q[j].at) }
func (q respawnQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *respawnQueue) Push(x any) {
	r := x.(*scheduledRespawn)
	r.index = len(*q)
	*q = append(*q, r)
}

func (q *respawnQueue) Pop() any {
	old := *q
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return r
}

// respawnScheduler owns the pooled-mode respawn timeline for one map: a
// deadline heap plus a per-spawn index for replacement and cancellation.
type respawnScheduler struct {
	queue   respawnQueue
	bySpawn map[uint64]*scheduledRespawn
}

func newRespawnScheduler() *respawnScheduler {
	return &respawnScheduler{bySpawn: make(map[uint64]*scheduledRespawn)}
}

// Schedule queues (or reschedules) a wakeup for a spawn id.
func (s *respawnScheduler) Schedule(spawnID uint64, entry uint32, at time.Time, gridID uint32) {
	if existing, ok := s.bySpawn[spawnID]; ok {
		existing.at = at
		existing.entry = entry
		heap.Fix(&s.queue, existing.index)
		return
	}
	r := &scheduledRespawn{spawnID: spawnID, entry: entry, at: at, gridID: gridID}
	s.bySpawn[spawnID] = r
	heap.Push(&s.queue, r)
}

// Cancel drops a pending wakeup.
func (s *respawnScheduler) Cancel(spawnID uint64) {
	r, ok := s.bySpawn[spawnID]
	if !ok {
		return
	}
	delete(s.bySpawn, spawnID)
	heap.Remove(&s.queue, r.index)
}

// PopDue removes and returns the next wakeup whose deadline has passed, or
// nil.
func (s *respawnScheduler) PopDue(now time.Time) *scheduledRespawn {
	if len(s.queue) == 0 || s.queue[0].at.After(now) {
		return nil
	}
	r := heap.Pop(&s.queue).(*scheduledRespawn)
	delete(s.bySpawn, r.spawnID)
	return r
}

// Pending returns every scheduled wakeup, for the admin reporting surface.
func (s *respawnScheduler) Pending() []model.RespawnInfo {
	out := make([]model.RespawnInfo, 0, len(s.queue))
	for _, r := range s.queue {
		out = append(out, model.RespawnInfo{
			Type:        model.SpawnTypeCreature,
			SpawnID:     r.spawnID,
			Entry:       r.entry,
			RespawnTime: r.at,
			GridID:      r.gridID,
		})
	}
	return out
}
