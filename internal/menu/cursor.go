package menu

// Cursor is a circular selection over N options with a sliding window of
// Size visible rows starting at Start.
type Cursor struct {
	Index int
	Start int
	N     int
	Size  int
}

// NewCursor creates a cursor at index with the window placed so the
// selection is visible.
func NewCursor(n, size, index int) Cursor {
	c := Cursor{N: n, Size: size}
	if n == 0 {
		return c
	}
	if index < 0 || index >= n {
		index = 0
	}
	c.Index = index
	if index >= size {
		c.Start = index - size + 1
	}
	return c
}

// Down moves the selection one row down, wrapping to the first option.
func (c *Cursor) Down() {
	if c.N == 0 {
		return
	}
	if c.Index == c.N-1 {
		c.Index = 0
		c.Start = 0
		return
	}
	c.Index++
	if c.Index >= c.Start+c.Size {
		c.Start = c.Index - c.Size + 1
	}
}

// Up moves the selection one row up, wrapping to the last option.
func (c *Cursor) Up() {
	if c.N == 0 {
		return
	}
	if c.Index == 0 {
		c.Index = c.N - 1
		c.Start = max(0, c.N-c.Size)
		return
	}
	c.Index--
	if c.Index < c.Start {
		c.Start = c.Index
	}
}

// Window returns the visible range [start, end).
func (c Cursor) Window() (int, int) {
	return c.Start, min(c.Start+c.Size, c.N)
}
