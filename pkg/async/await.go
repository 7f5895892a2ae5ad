package async

import "time"

func Await2[R1 any, R2 any](a <-chan struct {
	R1 R1
	R2 R2
}) (R1, R2) {
	r := <-a
	return r.R1, r.R2
}

// Done reports whether a was closed or delivered before deadline.
func Done(a <-chan struct{}, deadline time.Time) bool {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-a:
		return true
	case <-timer.C:
		return false
	}
}
