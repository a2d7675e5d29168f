package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CooldownDuration is how long Run stays disabled for a job after Stop.
const CooldownDuration = 30 * time.Minute

// Cooldowns tracks per-job run cooldowns as wall-clock deadlines in epoch
// milliseconds, persisted so a client restart neither resets nor extends
// them. Expired entries are pruned on every load and write.
type Cooldowns struct {
	store Store
	now   func() time.Time
}

// NewCooldowns builds a tracker over the given store. now defaults to
// time.Now.
func NewCooldowns(store Store, now func() time.Time) *Cooldowns {
	if now == nil {
		now = time.Now
	}
	return &Cooldowns{store: store, now: now}
}

// load returns the live cooldown map, dropping entries whose deadline passed.
func (c *Cooldowns) load() map[string]int64 {
	m := map[string]int64{}
	raw, ok := c.store.Get(KeyJobCooldowns)
	if !ok || raw == "" {
		return m
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]int64{}
	}
	nowMS := c.now().UnixMilli()
	for id, deadline := range m {
		if deadline <= nowMS {
			delete(m, id)
		}
	}
	return m
}

func (c *Cooldowns) save(m map[string]int64) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.store.Set(KeyJobCooldowns, string(raw))
}

// Arm starts the cooldown for jobID, deadline now + CooldownDuration.
func (c *Cooldowns) Arm(jobID uuid.UUID) error {
	m := c.load()
	m[jobID.String()] = c.now().Add(CooldownDuration).UnixMilli()
	return c.save(m)
}

// Active reports whether jobID is still cooling down.
func (c *Cooldowns) Active(jobID uuid.UUID) bool {
	_, ok := c.load()[jobID.String()]
	return ok
}

// Remaining returns how much cooldown is left for jobID, zero when none.
func (c *Cooldowns) Remaining(jobID uuid.UUID) time.Duration {
	deadline, ok := c.load()[jobID.String()]
	if !ok {
		return 0
	}
	return time.Duration(deadline-c.now().UnixMilli()) * time.Millisecond
}

// Clear removes the cooldown for jobID, if any.
func (c *Cooldowns) Clear(jobID uuid.UUID) error {
	m := c.load()
	delete(m, jobID.String())
	return c.save(m)
}
