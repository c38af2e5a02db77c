package buffer

// A Sample is one recorded chain state: the generation and chain it came
// from, the parameter point, and its log-probability.
type Sample struct {
	Generation int       `json:"generation"`
	Chain      int       `json:"chain"`
	Point      []float64 `json:"point"`
	LogP       float64   `json:"logp"`
}

// CircularSample is a circular buffer of Samples with the ability to iterate
// over the first and second halves of the retained window in the order that
// the samples were appended. Once full, Add overwrites the oldest entry.
type CircularSample struct {
	buffer    []Sample // actual storage
	pos       int      // Current position in buffer
	BufSize   int      // BufSize is the fixed number of samples maintained in memory
	Count     int      // Count is the number of samples in memory. Will always be <= BufSize
	TotalSeen int64    // TotalSeen is the total number of times Add has been called
}

// NewCircularSample creates a new circular buffer of totalSize. If totalSize
// is not a multiple of 2, it will be adjusted.
func NewCircularSample(totalSize int) *CircularSample {
	// Fix odd number situations
	half := totalSize / 2
	total := half + half

	return &CircularSample{
		buffer:  make([]Sample, total),
		pos:     0,
		BufSize: total,
		Count:   0,
	}
}

// Internal: return the next array position
func (c *CircularSample) nextPos() int {
	return (c.pos + 1) % c.BufSize
}

// Add appends the given sample to the buffer, overwriting the oldest entry
func (c *CircularSample) Add(s Sample) error {
	c.TotalSeen++

	c.buffer[c.pos] = s

	c.pos = c.nextPos()

	c.Count++
	if c.Count > c.BufSize {
		c.Count = c.BufSize // max out
	}

	return nil
}

// Snapshot returns the retained samples oldest-first. The sample structs are
// copied but the Point slices are shared: callers must not modify them.
func (c *CircularSample) Snapshot() []Sample {
	out := make([]Sample, 0, c.Count)

	start := 0
	if c.Count == c.BufSize {
		start = c.pos // Oldest is the one we're about to write
	}
	for i := 0; i < c.Count; i++ {
		out = append(out, c.buffer[(start+i)%c.BufSize])
	}

	return out
}

// FirstHalf returns an iterator over the first (oldest) half of the stored
// samples. Will not return a valid iterator until Add has been called at
// least BufSize times
func (c *CircularSample) FirstHalf() *CircularSampleIterator {
	if c.Count < c.BufSize {
		return nil
	}

	return &CircularSampleIterator{
		buf:    c,
		curr:   c.pos, // Oldest is the one we're about to write
		remain: c.BufSize / 2,
	}
}

// SecondHalf returns an iterator over the second (most recent) half of the
// stored samples. Will not return a valid iterator until Add has been called
// at least BufSize times
func (c *CircularSample) SecondHalf() *CircularSampleIterator {
	if c.Count < c.BufSize {
		return nil
	}

	half := c.BufSize / 2
	pos := (c.pos + half) % c.BufSize

	return &CircularSampleIterator{
		buf:    c,
		curr:   pos,
		remain: half,
	}
}

// CircularSampleIterator provides an iterator over a CircularSample buffer
type CircularSampleIterator struct {
	buf    *CircularSample
	curr   int
	remain int
}

// Next returns True when there are more values to read via Value
func (i *CircularSampleIterator) Next() bool {
	return i.remain > 0
}

// Value returns the next sample to be read. Should only be called if Next()
// is True
func (i *CircularSampleIterator) Value() Sample {
	v := i.buf.buffer[i.curr]
	i.curr = (i.curr + 1) % i.buf.BufSize
	i.remain--
	return v
}
