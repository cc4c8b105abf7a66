package cache

// EventType says what happened to a key.
type EventType int

const (
	EventUpdated EventType = iota
	EventInvalidated
	EventCleared
)

func (t EventType) String() string {
	switch t {
	case EventUpdated:
		return "updated"
	case EventInvalidated:
		return "invalidated"
	default:
		return "cleared"
	}
}

// Event is delivered to subscribers. Key is nil for EventCleared.
type Event struct {
	Type EventType
	Key  Key
}

type subscription struct {
	prefix Key
	fn     func(Event)
}

// Subscribe calls fn for every event on a key under prefix, and for every
// Clear. fn runs synchronously on the goroutine that caused the event and
// must not block.
func (c *Cache) Subscribe(prefix Key, fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = subscription{prefix: prefix.clone(), fn: fn}
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Cache) notify(ev Event) {
	c.subMu.Lock()
	var fns []func(Event)
	for _, s := range c.subs {
		if ev.Type == EventCleared || ev.Key.HasPrefix(s.prefix) {
			fns = append(fns, s.fn)
		}
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
