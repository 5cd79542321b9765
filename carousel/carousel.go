// Package carousel is a wrapping cursor over a list shown one item at a time.
package carousel

import "sync"

// Carousel is safe for concurrent use. The zero value is an empty carousel.
type Carousel struct {
	mu    sync.Mutex
	n     int
	index int
}

func New(n int) *Carousel {
	c := &Carousel{}
	c.Reset(n)
	return c
}

// Reset points the carousel at the first of n items.
func (c *Carousel) Reset(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		n = 0
	}
	c.n = n
	c.index = 0
}

func (c *Carousel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Next moves to (i+1) mod n and returns the new index.
func (c *Carousel) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return 0
	}
	c.index = (c.index + 1) % c.n
	return c.index
}

// Prev moves to (i-1+n) mod n and returns the new index.
func (c *Carousel) Prev() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return 0
	}
	c.index = (c.index - 1 + c.n) % c.n
	return c.index
}

// Move steps forward for "next" and backward for "prev". Other directions
// leave the index alone and report false.
func (c *Carousel) Move(direction string) (int, bool) {
	switch direction {
	case "next":
		return c.Next(), true
	case "prev":
		return c.Prev(), true
	default:
		return c.Index(), false
	}
}
