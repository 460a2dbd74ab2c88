package gallery

import "sync"

// Keys the lightbox reacts to.
const (
	KeyEscape     = "Escape"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// KeySource delivers key presses to subscribers until they unsubscribe.
type KeySource interface {
	Subscribe(fn func(key string)) (unsubscribe func())
}

// KeyBus is an in-process KeySource.
type KeyBus struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(string)
}

func NewKeyBus() *KeyBus {
	return &KeyBus{handlers: make(map[int]func(string))}
}

func (b *KeyBus) Subscribe(fn func(key string)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Dispatch delivers key to every current subscriber.
func (b *KeyBus) Dispatch(key string) {
	b.mu.Lock()
	handlers := make([]func(string), 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(key)
	}
}

// Len reports the number of subscribers.
func (b *KeyBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}
