package device

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestLoopback(t *testing.T) {
	t.Parallel()

	dev := &Loopback{Lead: 3}
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	defer dev.Stop()
	if err := dev.Open(); err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	done, err := dev.Play([]int16{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	default:
		t.Fatal("Play did not complete immediately")
	}

	buf := make([]int16, 16)
	n, err := dev.Read(buf, time.Now().Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if expected := []int16{0, 0, 0, 1, 2, 3, 4}; !reflect.DeepEqual(buf[:n], expected) {
		t.Errorf("Expected %v, but got %v", expected, buf[:n])
	}
}

func TestLoopbackReadTimesOut(t *testing.T) {
	t.Parallel()

	dev := &Loopback{}
	dev.Start()
	defer dev.Stop()

	start := time.Now()
	n, err := dev.Read(make([]int16, 8), start.Add(50*time.Millisecond))
	if n != 0 || err != nil {
		t.Errorf("Read = %d, %v; want 0, nil", n, err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Read returned after %v, before the deadline", elapsed)
	}
}

func TestLoopbackReadWakesOnPlay(t *testing.T) {
	t.Parallel()

	dev := &Loopback{}
	dev.Start()
	defer dev.Stop()
	dev.Open()
	defer dev.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		dev.Play([]int16{7})
	}()

	buf := make([]int16, 4)
	n, err := dev.Read(buf, time.Now().Add(2*time.Second))
	if err != nil || n != 1 || buf[0] != 7 {
		t.Errorf("Read = %d, %v, %v; want 1 sample of 7", n, err, buf[:n])
	}
}

func TestLoopbackNoise(t *testing.T) {
	t.Parallel()

	played := make([]int16, 1000)
	read := func(seed uint64) []int16 {
		dev := &Loopback{Noise: 100, Seed: seed}
		dev.Start()
		dev.Open()
		dev.Play(played)
		buf := make([]int16, len(played))
		n, _ := dev.Read(buf, time.Now().Add(time.Second))
		return buf[:n]
	}

	a, b := read(1), read(1)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed gave different noise")
	}
	if reflect.DeepEqual(a, played) {
		t.Error("noise was not applied")
	}
	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	if rms := sum / float64(len(a)); rms < 50*50 || rms > 200*200 {
		t.Errorf("noise power %v far from 100^2", rms)
	}
}

func TestLoopbackNotStarted(t *testing.T) {
	t.Parallel()

	dev := &Loopback{}
	if _, err := dev.Read(make([]int16, 1), time.Now()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Read before Start error = %v", err)
	}
	if _, err := dev.Play([]int16{1}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Play before Open error = %v", err)
	}
	if err := dev.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Stop before Start error = %v", err)
	}
}

func TestLoopbackStopDropsUnread(t *testing.T) {
	t.Parallel()

	dev := &Loopback{}
	dev.Open()
	dev.Play([]int16{1, 2, 3})
	dev.Start()
	dev.Stop()
	if n := dev.Buffered(); n != 0 {
		t.Errorf("Buffered() = %d after Stop, want 0", n)
	}

	dev.Play([]int16{4})
	dev.Start()
	defer dev.Stop()
	buf := make([]int16, 4)
	n, _ := dev.Read(buf, time.Now().Add(time.Second))
	if n != 1 || buf[0] != 4 {
		t.Errorf("Read = %v, want [4]", buf[:n])
	}
}
