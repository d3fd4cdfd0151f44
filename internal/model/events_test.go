package model

import (
	"testing"
	"time"
)

type recordingEvent struct {
	fired     int
	aborted   bool
	failFirst bool
}

func (e *recordingEvent) Execute(time.Duration) bool {
	e.fired++
	return !(e.failFirst && e.fired == 1)
}

func (e *recordingEvent) Abort() { e.aborted = true }

func TestEventQueue_FiresWhenDue(t *testing.T) {
	var q EventQueue
	var order []string
	q.Schedule(50*time.Millisecond, ClosureEvent{Fn: func() { order = append(order, "late") }})
	q.Schedule(20*time.Millisecond, ClosureEvent{Fn: func() { order = append(order, "early") }})

	q.Update(10 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("nothing is due at 10ms, got %v", order)
	}
	q.Update(10 * time.Millisecond)
	if len(order) != 1 || order[0] != "early" {
		t.Fatalf("at 20ms only the early event fires, got %v", order)
	}
	q.Update(30 * time.Millisecond)
	if len(order) != 2 || order[1] != "late" {
		t.Fatalf("at 50ms the late event fires, got %v", order)
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}

func TestEventQueue_FailedExecuteRetries(t *testing.T) {
	var q EventQueue
	ev := &recordingEvent{failFirst: true}
	q.Schedule(10*time.Millisecond, ev)

	q.Update(10 * time.Millisecond)
	if ev.fired != 1 {
		t.Fatalf("fired = %d, want 1", ev.fired)
	}
	if q.Len() != 1 {
		t.Fatal("a failed execution keeps the event queued")
	}

	// The retry lands 100ms after the failed attempt.
	q.Update(99 * time.Millisecond)
	if ev.fired != 1 {
		t.Error("retry must not fire before its backoff elapses")
	}
	q.Update(1 * time.Millisecond)
	if ev.fired != 2 {
		t.Errorf("fired = %d, want 2 after the backoff", ev.fired)
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}

func TestEventQueue_KillAllEvents(t *testing.T) {
	var q EventQueue
	a := &recordingEvent{}
	b := &recordingEvent{}
	q.Schedule(10*time.Millisecond, a)
	q.Schedule(20*time.Millisecond, b)

	q.KillAllEvents()
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
	if !a.aborted || !b.aborted {
		t.Error("pending events should be aborted")
	}
	q.Update(time.Minute)
	if a.fired != 0 || b.fired != 0 {
		t.Error("killed events must never execute")
	}
}

func TestAssistDelayEvent_EngagesIdleHelpers(t *testing.T) {
	SetFactionStore(newTestFactions())
	f := newFakeWorld()
	store := newTestStore()

	owner, err := spawnTestCreature(f, store, 1, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	helper, err := spawnTestCreature(f, store, 2, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	busy, err := spawnTestCreature(f, store, 3, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	busy.SetInCombat(true)
	victim := newTestPlayer(f, 1)

	ev := &AssistDelayEvent{
		Victim:  victim.GUID(),
		Owner:   owner,
		Helpers: []ObjectGuid{helper.GUID(), busy.GUID()},
	}
	if !ev.Execute(0) {
		t.Fatal("a completed assist call does not retry")
	}

	if !helper.IsInCombat() {
		t.Error("the idle helper should engage the victim")
	}
	if got := helper.ThreatManager().ThreatOf(victim.GUID()); got != 0 {
		t.Errorf("assist seeds a zero-threat reference, got %v", got)
	}
	if len(helper.ThreatManager().HostileGUIDs()) != 1 {
		t.Error("the victim should be on the helper's threat list")
	}
	if len(busy.ThreatManager().HostileGUIDs()) != 0 {
		t.Error("a helper already fighting is left alone")
	}
}

func TestAssistDelayEvent_DeadVictimIsIgnored(t *testing.T) {
	SetFactionStore(newTestFactions())
	f := newFakeWorld()
	store := newTestStore()

	owner, err := spawnTestCreature(f, store, 1, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	helper, err := spawnTestCreature(f, store, 2, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	victim := newTestPlayer(f, 1)
	victim.setDeathStateBase(DeathStateCorpse)

	ev := &AssistDelayEvent{Victim: victim.GUID(), Owner: owner, Helpers: []ObjectGuid{helper.GUID()}}
	if !ev.Execute(0) {
		t.Fatal("the event completes even when the victim died meanwhile")
	}
	if helper.IsInCombat() {
		t.Error("nobody engages a dead victim")
	}
}
