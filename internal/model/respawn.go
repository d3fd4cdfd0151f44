package model

import (
	"math/rand/v2"
	"time"
)

// Linked respawns wake the dependent spawn a short randomized interval after
// its master.
const (
	linkedRespawnOffsetMin = 5 * time.Second
	linkedRespawnOffsetMax = 15 * time.Second

	// selfLinkedRespawnHold parks a spawn linked to itself; it never wakes
	// through the normal path.
	selfLinkedRespawnHold = 7 * 24 * time.Hour
)

// RespawnStrategy is the scheduling seam between the two coexisting respawn
// models: the legacy mode where a despawned creature object stays resident
// and polls its own deadline every tick, and the pooled mode where the map's
// respawn scheduler owns the wakeup and the creature object is removed
// outright.
type RespawnStrategy interface {
	// CompatibilityMode reports the legacy self-polled model.
	CompatibilityMode() bool
	// UpdateDead runs once per tick while the creature sits in the DEAD
	// state.
	UpdateDead(c *Creature)
	// Respawn brings the spawn back, immediately in legacy mode, via the
	// map scheduler in pooled mode.
	Respawn(c *Creature, force bool)
	// Despawn removes the live creature after a forced despawn, arming the
	// next spawn's deadline.
	Despawn(c *Creature, forceRespawnTimer time.Duration)
}

// legacyRespawn self-polls the persisted deadline from the DEAD state.
type legacyRespawn struct{}

func (legacyRespawn) CompatibilityMode() bool { return true }

func (legacyRespawn) UpdateDead(c *Creature) {
	ctx := c.Context()
	if ctx == nil {
		return
	}
	now := ctx.Now()
	if now.Before(c.respawnTime) {
		return
	}
	if c.spawnGroup != nil && !ctx.IsSpawnGroupActive(c.spawnGroup.GroupID) {
		return
	}

	linked := ctx.LinkedRespawnFor(c.spawnID)
	if linked == 0 {
		c.Respawn(false)
		return
	}
	if linked == c.spawnID {
		// Self-link means "never", enforced with a very long hold.
		c.setRespawnTime(now.Add(selfLinkedRespawnHold))
		return
	}
	masterTime := ctx.RespawnTimeFor(linked)
	if masterTime.IsZero() || now.After(masterTime) {
		c.Respawn(false)
		return
	}
	offset := linkedRespawnOffsetMin +
		time.Duration(rand.Int64N(int64(linkedRespawnOffsetMax-linkedRespawnOffsetMin)))
	c.setRespawnTime(masterTime.Add(offset))
}

func (legacyRespawn) Respawn(c *Creature, force bool) {
	if force && c.IsAlive() {
		c.SetDeathState(DeathStateJustDied)
	}
	if ctx := c.Context(); ctx != nil {
		ctx.ObjectDestroyedForNearby(&c.WorldObject)
	}
	c.RemoveCorpse(false, false)
	if c.deathState != DeathStateDead {
		return
	}
	if ctx := c.Context(); ctx != nil && c.spawnID != 0 {
		ctx.RemoveRespawnTime(c.spawnID)
	}
	c.respawnTime = time.Time{}
	if c.data != nil && c.data.DisplayID == 0 {
		if m := c.template.RandomValidModel(); m != nil {
			c.SetDisplayID(m.DisplayID)
			c.SetNativeDisplayID(m.DisplayID)
		}
	}
	c.SelectLevel()
	c.SetDespawnInvisible(false)
	c.SetDeathState(DeathStateJustRespawned)
	if c.aiEnabled {
		c.AI().Reset()
	}
	c.triggerJustAppeared = true
}

func (legacyRespawn) Despawn(c *Creature, forceRespawnTimer time.Duration) {
	if forceRespawnTimer > 0 {
		// Override the delays for this one cycle so the next spawn lands
		// sooner or later than the template default, then restore.
		corpseDelay, respawnDelay := c.corpseDelay, c.respawnDelay
		c.corpseDelay = 0
		c.respawnDelay = forceRespawnTimer
		defer func() {
			c.corpseDelay = corpseDelay
			c.respawnDelay = respawnDelay
		}()
	}
	if c.IsAlive() {
		c.SetDeathState(DeathStateJustDied)
	}
	c.RemoveCorpse(false, true)
}

// pooledRespawn hands the wakeup to the map scheduler and removes the live
// object.
type pooledRespawn struct{}

func (pooledRespawn) CompatibilityMode() bool { return false }

func (pooledRespawn) UpdateDead(*Creature) {}

func (pooledRespawn) Respawn(c *Creature, force bool) {
	if force && c.IsAlive() {
		c.SetDeathState(DeathStateJustDied)
	}
	ctx := c.Context()
	if ctx == nil || c.spawnID == 0 {
		return
	}
	ctx.ScheduleRespawn(c.spawnID, c.Entry(), ctx.Now())
}

func (pooledRespawn) Despawn(c *Creature, forceRespawnTimer time.Duration) {
	ctx := c.Context()
	now := c.now()
	delay := c.respawnDelay
	if ctx != nil {
		if rate := ctx.RespawnRate(); rate > 0 {
			delay = time.Duration(float64(delay) * rate)
		}
	}
	if forceRespawnTimer > 0 {
		delay = forceRespawnTimer
	}
	if c.IsAlive() {
		c.SetDeathState(DeathStateJustDied)
	}
	if ctx != nil && c.spawnID != 0 {
		ctx.SaveRespawnTime(c.spawnID, now.Add(delay))
		ctx.ScheduleRespawn(c.spawnID, c.Entry(), now.Add(delay))
	}
	c.SetDespawnInvisible(true)
	if ctx != nil {
		ctx.ObjectDestroyedForNearby(&c.WorldObject)
	}
	c.RemoveFromWorld()
}
