package journal

// Counter hands out slip numbers. It only moves forward.
type Counter struct {
	next int
}

// NewCounter returns a Counter whose first number is start.
func NewCounter(start int) *Counter {
	return &Counter{next: start}
}

// Next returns the next slip number and advances the counter.
func (c *Counter) Next() int {
	n := c.next
	c.next++
	return n
}

// Peek returns the number Next would return.
func (c *Counter) Peek() int {
	return c.next
}
