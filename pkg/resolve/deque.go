package resolve

// deque is a double-ended queue. The zero value is empty.
type deque[T any] struct {
	items []T
}

func (d *deque[T]) len() int { return len(d.items) }

func (d *deque[T]) pushBack(v T) { d.items = append(d.items, v) }

func (d *deque[T]) pushFront(v T) {
	d.items = append(d.items, v)
	copy(d.items[1:], d.items)
	d.items[0] = v
}

func (d *deque[T]) popFront() T {
	v := d.items[0]
	var zero T
	d.items[0] = zero
	d.items = d.items[1:]
	return v
}

func (d *deque[T]) popBack() T {
	n := len(d.items) - 1
	v := d.items[n]
	var zero T
	d.items[n] = zero
	d.items = d.items[:n]
	return v
}
