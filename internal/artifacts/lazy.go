package artifacts

// Lazy loads a value on first use and keeps it. A failed load is not cached,
// so the next Get tries again.
type Lazy[T any] struct {
	load   func() (T, error)
	value  T
	loaded bool
}

func NewLazy[T any](load func() (T, error)) *Lazy[T] {
	return &Lazy[T]{load: load}
}

// Get returns the loaded value, loading it if necessary.
func (l *Lazy[T]) Get() (T, error) {
	if l.loaded {
		return l.value, nil
	}
	v, err := l.load()
	if err != nil {
		var zero T
		return zero, err
	}
	l.value = v
	l.loaded = true
	return v, nil
}

func (l *Lazy[T]) Loaded() bool {
	return l.loaded
}
