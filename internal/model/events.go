package model

import "time"

// Event is one deferred action on an entity's private timeline. Events run on
// the owning map's update goroutine when their delay elapses.
type Event interface {
	// Execute runs the event. Returning false re-queues it unharmed (an
	// aborted execution keeps the event alive for a retry).
	Execute(now time.Duration) bool
	// Abortable events are given a final Abort call when the queue is killed.
	Abort()
}

type queuedEvent struct {
	at time.Duration
	ev Event
}

// EventQueue is a per-entity deferred-action timeline, advanced by the
// entity's own Update. Not safe for concurrent use.
type EventQueue struct {
	now    time.Duration
	events []queuedEvent
}

// Schedule queues ev to run after delay.
func (q *EventQueue) Schedule(delay time.Duration, ev Event) {
	q.events = append(q.events, queuedEvent{at: q.now + delay, ev: ev})
}

// Update advances the timeline and executes everything due.
func (q *EventQueue) Update(diff time.Duration) {
	q.now += diff
	i := 0
	for i < len(q.events) {
		e := q.events[i]
		if e.at > q.now {
			i++
			continue
		}
		q.events = append(q.events[:i], q.events[i+1:]...)
		if !e.ev.Execute(q.now) {
			// Retry shortly; the event decides when it can complete.
			q.events = append(q.events, queuedEvent{at: q.now + 100*time.Millisecond, ev: e.ev})
		}
	}
}

// KillAllEvents aborts and drops every pending event.
func (q *EventQueue) KillAllEvents() {
	for _, e := range q.events {
		e.ev.Abort()
	}
	q.events = nil
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int { return len(q.events) }

// ClosureEvent wraps a plain function as an event.
type ClosureEvent struct {
	Fn func()
}

func (e ClosureEvent) Execute(time.Duration) bool {
	e.Fn()
	return true
}

func (e ClosureEvent) Abort() {}

// AssistDelayEvent fires a delayed assist call: nearby friends gathered when
// the victim was first noticed attack it once the shout delay elapses.
type AssistDelayEvent struct {
	Victim  ObjectGuid
	Owner   *Creature
	Helpers []ObjectGuid
}

func (e *AssistDelayEvent) Execute(time.Duration) bool {
	ctx := e.Owner.Context()
	if ctx == nil {
		return true
	}
	victimObj := ctx.FindWorldObject(e.Victim)
	if victimObj == nil {
		return true
	}
	victim := UnitFromObject(victimObj)
	if victim == nil || !victim.IsAlive() {
		return true
	}
	for _, g := range e.Helpers {
		obj := ctx.FindWorldObject(g)
		if obj == nil {
			continue
		}
		helper, ok := obj.Data.(*Creature)
		if !ok || !helper.IsAlive() || helper.IsInCombat() {
			continue
		}
		if helper.CanAssistTo(e.Owner, victim, false) {
			helper.EngageWithTarget(victim)
		}
	}
	return true
}

func (e *AssistDelayEvent) Abort() {}

// ForcedDespawnEvent removes the creature after a delay, optionally arming a
// respawn timer before the removal.
type ForcedDespawnEvent struct {
	Owner        *Creature
	RespawnTimer time.Duration
}

func (e *ForcedDespawnEvent) Execute(time.Duration) bool {
	e.Owner.DespawnOrUnsummon(0, e.RespawnTimer)
	return true
}

func (e *ForcedDespawnEvent) Abort() {}
