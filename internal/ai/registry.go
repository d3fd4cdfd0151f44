package ai

import (
	"log/slog"
	"sync"

	"github.com/openwow/wowgo/internal/model"
)

// Factory builds a behavior for a freshly initialized creature.
type Factory func(c *model.Creature) model.CreatureAI

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a named factory. Later registrations under the same name win,
// so scripts can shadow the built-ins.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Install wires the registry into creature construction. Call once at shard
// startup, after script registration.
func Install() {
	model.SetAIFactory(func(c *model.Creature) model.CreatureAI {
		return ForCreature(c)
	})
}

// ForCreature selects a behavior: the template's named script if registered,
// else a default keyed off the template's disposition.
func ForCreature(c *model.Creature) model.CreatureAI {
	name := c.Template().AIName
	if name != "" {
		registryMu.RLock()
		f, ok := registry[name]
		registryMu.RUnlock()
		if ok {
			return f(c)
		}
		slog.Warn("unknown AI script, using default", "entry", c.Entry(), "ai", name)
	}
	if c.StaticFlags().Has(model.StaticFlagSessile) || c.StaticFlags().Has(model.StaticFlagNoMelee) {
		return NewPassiveAI(c)
	}
	return NewAggressorAI(c)
}

func init() {
	Register("NullAI", func(*model.Creature) model.CreatureAI { return model.NullAI{} })
	Register("PassiveAI", func(c *model.Creature) model.CreatureAI { return NewPassiveAI(c) })
	Register("AggressorAI", func(c *model.Creature) model.CreatureAI { return NewAggressorAI(c) })
}
