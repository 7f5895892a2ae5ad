package async

// Signal is a one-shot wake-up. Signal arms a fresh channel, Notify
// releases whoever waits on it. Callers serialize access themselves.
type Signal[T any] chan T

// Notify closes the armed channel. It reports false when nothing was
// armed or it had already fired.
func (s *Signal[T]) Notify() bool {
	if *s != nil {
		select {
		case <-*s:
		default:
			close(*s)
			return true
		}
	}
	return false
}

func (s *Signal[T]) Signal() <-chan T {
	*s = make(chan T)
	return *s
}
