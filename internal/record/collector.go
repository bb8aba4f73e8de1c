package record

// Collector accumulates confirmed readings in generation order. It has a
// single owner for the lifetime of a run; readings are appended only after
// the broker confirmed delivery, so the collected sequence reflects exactly
// what was delivered.
type Collector struct {
	readings []Reading
	sealed   bool
}

func NewCollector(capacity int) *Collector {
	if capacity < 0 {
		capacity = 0
	}
	return &Collector{readings: make([]Reading, 0, capacity)}
}

func (c *Collector) Append(r Reading) {
	if c.sealed {
		return
	}
	c.readings = append(c.readings, r)
}

func (c *Collector) Len() int { return len(c.readings) }

// Seal closes the collector and returns the final ordered sequence.
// Appends after sealing are ignored.
func (c *Collector) Seal() []Reading {
	c.sealed = true
	return c.readings
}
