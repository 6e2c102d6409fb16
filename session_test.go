// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/mflow"
	"github.com/benbjohnson/clock"
)

func TestSessionDefaults(t *testing.T) {
	e := newEngine(t)
	s := open(t, e, 0)
	if s.Flow() != mflow.High {
		t.Fatalf("flow got %v, want high", s.Flow())
	}
	if !s.Blocking() {
		t.Fatal("new session is not blocking")
	}
	if s.Timeout() != mflow.DefaultTimeout {
		t.Fatalf("timeout got %v, want %v", s.Timeout(), mflow.DefaultTimeout)
	}
	if s.Index() != 0 {
		t.Fatalf("index got %d, want 0", s.Index())
	}
}

func TestSessionHighWriteRead(t *testing.T) {
	e := newEngine(t, mflow.WithCapacity(16))
	s := open(t, e, 1)

	n, err := s.Write([]byte("HELLOWORLD"))
	if err != nil || n != 10 {
		t.Fatalf("write got %d, %v; want 10", n, err)
	}
	if got, _ := e.BytesAvailable(1, mflow.High); got != 10 {
		t.Fatalf("bytes available got %d, want 10", got)
	}

	p := make([]byte, 4)
	n, err = s.Read(p)
	if err != nil || string(p[:n]) != "HELL" {
		t.Fatalf("read got %q, %v; want HELL", p[:n], err)
	}
	if got, _ := e.BytesAvailable(1, mflow.High); got != 6 {
		t.Fatalf("bytes available got %d, want 6", got)
	}
	if got, _ := e.BytesAvailable(1, mflow.Low); got != 0 {
		t.Fatalf("low flow got %d bytes, want 0", got)
	}
}

func TestSessionNonBlockingEmptyRead(t *testing.T) {
	e := newEngine(t)
	s := open(t, e, 2)
	if err := s.SetBlocking(false); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	n, err := s.Read(make([]byte, 8))
	if err != nil || n != 0 {
		t.Fatalf("read got %d, %v; want 0, nil", n, err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("non-blocking read took %v", elapsed)
	}
}

func TestSessionNonBlockingFullWrite(t *testing.T) {
	e := newEngine(t, mflow.WithCapacity(4))
	s := open(t, e, 2)
	if err := s.SetBlocking(false); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Write([]byte("abcdef")); n != 4 {
		t.Fatalf("write got %d, want 4", n)
	}
	if n, err := s.Write([]byte("g")); n != 0 || err != nil {
		t.Fatalf("write to full flow got %d, %v; want 0, nil", n, err)
	}
}

func TestSessionBlockingReadTimeout(t *testing.T) {
	e := newEngine(t)
	s := open(t, e, 3)
	if err := s.SetTimeout(50 * time.Millisecond); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	n, err := s.Read(make([]byte, 8))
	elapsed := time.Since(start)
	if err != nil || n != 0 {
		t.Fatalf("read got %d, %v; want 0, nil", n, err)
	}
	if elapsed < 45*time.Millisecond {
		t.Fatalf("read returned after %v, want about 50ms", elapsed)
	}
	if w, _ := e.WaitingReaders(3, mflow.High); w != 0 {
		t.Fatalf("waiting readers got %d, want 0", w)
	}
}

func TestSessionBlockingReadMockClock(t *testing.T) {
	mock := clock.NewMock()
	e := newEngine(t, mflow.WithClock(mock), mflow.WithDefaultTimeout(time.Second))
	s := open(t, e, 4)

	done := make(chan int)
	go func() {
		n, _ := s.Read(make([]byte, 8))
		done <- n
	}()

	for {
		if w, _ := e.WaitingReaders(4, mflow.High); w == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	for {
		select {
		case n := <-done:
			if n != 0 {
				t.Fatalf("read got %d, want 0", n)
			}
			if w, _ := e.WaitingReaders(4, mflow.High); w != 0 {
				t.Fatalf("waiting readers got %d, want 0", w)
			}
			return
		default:
			mock.Add(100 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestSessionBlockingReadWakesOnWrite(t *testing.T) {
	e := newEngine(t, mflow.WithDefaultTimeout(5*time.Second))
	r := open(t, e, 5)
	w := open(t, e, 5)

	got := make(chan []byte)
	go func() {
		p := make([]byte, 5)
		n, _ := r.Read(p)
		got <- p[:n]
	}()

	for {
		if n, _ := e.WaitingReaders(5, mflow.High); n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if p := <-got; string(p) != "hello" {
		t.Fatalf("read got %q, want hello", p)
	}
}

func TestSessionBlockingWriteWaitsForRoom(t *testing.T) {
	e := newEngine(t, mflow.WithCapacity(4), mflow.WithDefaultTimeout(5*time.Second))
	w := open(t, e, 6)
	r := open(t, e, 6)
	if n, _ := w.Write([]byte("abcd")); n != 4 {
		t.Fatalf("fill got %d, want 4", n)
	}

	done := make(chan int)
	go func() {
		n, _ := w.Write([]byte("ef"))
		done <- n
	}()

	time.Sleep(10 * time.Millisecond)
	if err := r.SetBlocking(false); err != nil {
		t.Fatal(err)
	}
	p := make([]byte, 2)
	if n, _ := r.Read(p); n != 2 {
		t.Fatalf("read got %d, want 2", n)
	}
	if n := <-done; n != 2 {
		t.Fatalf("blocked write got %d, want 2", n)
	}
}

func TestSessionBlockingWriteTimeout(t *testing.T) {
	e := newEngine(t, mflow.WithCapacity(2))
	s := open(t, e, 7)
	if err := s.SetTimeout(20 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Write([]byte("ab")); n != 2 {
		t.Fatalf("fill got %d, want 2", n)
	}
	n, err := s.Write([]byte("c"))
	if n != 0 || err != nil {
		t.Fatalf("write to full flow got %d, %v; want 0, nil", n, err)
	}
}

func TestSessionFlowIsolation(t *testing.T) {
	skipRace(t)
	e := newEngine(t)
	hi := open(t, e, 8)
	lo := open(t, e, 8)
	if err := lo.Configure(mflow.Config{Flow: ptr(mflow.Low), Blocking: ptr(false)}); err != nil {
		t.Fatal(err)
	}
	if err := hi.SetBlocking(false); err != nil {
		t.Fatal(err)
	}

	if _, err := hi.Write([]byte("high")); err != nil {
		t.Fatal(err)
	}
	if n, _ := lo.Read(make([]byte, 8)); n != 0 {
		t.Fatalf("low read saw %d high bytes", n)
	}

	if _, err := lo.Write([]byte("low")); err != nil {
		t.Fatal(err)
	}
	settle(t, e)

	p := make([]byte, 8)
	n, _ := hi.Read(p)
	if string(p[:n]) != "high" {
		t.Fatalf("high read got %q, want high", p[:n])
	}
	n, _ = lo.Read(p)
	if string(p[:n]) != "low" {
		t.Fatalf("low read got %q, want low", p[:n])
	}
}

func TestSessionConcurrentWriterReader(t *testing.T) {
	e := newEngine(t)
	w := open(t, e, 9)
	r := open(t, e, 9)
	if err := r.SetTimeout(500 * time.Millisecond); err != nil {
		t.Fatal(err)
	}

	want := make([]byte, 100)
	for i := range want {
		want[i] = byte(i)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			chunk := want[i*10 : (i+1)*10]
			for len(chunk) > 0 {
				n, err := w.Write(chunk)
				if err != nil {
					t.Errorf("write: %v", err)
					return
				}
				chunk = chunk[n:]
			}
		}
	}()

	var got []byte
	p := make([]byte, 32)
	for len(got) < len(want) {
		n, err := r.Read(p[:min(len(p), len(want)-len(got))])
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if n == 0 {
			t.Fatalf("read timed out after %d bytes", len(got))
		}
		got = append(got, p[:n]...)
	}
	wg.Wait()

	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if n, _ := r.TryRead(p); n != 0 {
		t.Fatalf("extra %d bytes after transfer", n)
	}
}

func TestSessionConfigureValidation(t *testing.T) {
	e := newEngine(t)
	s := open(t, e, 10)

	if err := s.SetTimeout(0); !errors.Is(err, mflow.ErrInvalidArgument) {
		t.Fatalf("SetTimeout(0) err = %v, want ErrInvalidArgument", err)
	}
	if err := s.SetFlow(mflow.Flow(9)); !errors.Is(err, mflow.ErrInvalidArgument) {
		t.Fatalf("SetFlow(9) err = %v, want ErrInvalidArgument", err)
	}
	err := s.Configure(mflow.Config{Blocking: ptr(false), Timeout: ptr(-time.Second)})
	if !errors.Is(err, mflow.ErrInvalidArgument) {
		t.Fatalf("Configure err = %v, want ErrInvalidArgument", err)
	}
	if !s.Blocking() || s.Timeout() != mflow.DefaultTimeout || s.Flow() != mflow.High {
		t.Fatal("rejected configuration was partially applied")
	}

	if err := s.SetTimeout(time.Second); err != nil {
		t.Fatal(err)
	}
	c := s.Config()
	if *c.Timeout != time.Second || *c.Flow != mflow.High || !*c.Blocking {
		t.Fatalf("config got %v %v %v", *c.Flow, *c.Blocking, *c.Timeout)
	}
}

func TestSessionClose(t *testing.T) {
	e := newEngine(t)
	s := open(t, e, 11)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); !errors.Is(err, mflow.ErrSessionClosed) {
		t.Fatalf("second Close err = %v, want ErrSessionClosed", err)
	}
	if _, err := s.Read(make([]byte, 1)); !errors.Is(err, mflow.ErrSessionClosed) {
		t.Fatalf("Read err = %v, want ErrSessionClosed", err)
	}
	if _, err := s.Write([]byte("x")); !errors.Is(err, mflow.ErrSessionClosed) {
		t.Fatalf("Write err = %v, want ErrSessionClosed", err)
	}
	if err := s.SetBlocking(false); !errors.Is(err, mflow.ErrSessionClosed) {
		t.Fatalf("SetBlocking err = %v, want ErrSessionClosed", err)
	}
}

func TestSessionCloseWakesBlockedRead(t *testing.T) {
	e := newEngine(t, mflow.WithDefaultTimeout(10*time.Second))
	s := open(t, e, 12)

	type result struct {
		n   int
		err error
	}
	done := make(chan result)
	go func() {
		n, err := s.Read(make([]byte, 4))
		done <- result{n, err}
	}()
	for {
		if w, _ := e.WaitingReaders(12, mflow.High); w == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case r := <-done:
		if r.n != 0 || r.err != nil {
			t.Fatalf("woken read got %d, %v; want 0, nil", r.n, r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wake the blocked read")
	}
	if w, _ := e.WaitingReaders(12, mflow.High); w != 0 {
		t.Fatalf("waiting readers got %d, want 0", w)
	}
}

func TestSessionZeroLength(t *testing.T) {
	e := newEngine(t)
	s := open(t, e, 13)
	if n, err := s.Write(nil); n != 0 || err != nil {
		t.Fatalf("empty write got %d, %v", n, err)
	}
	if n, err := s.Read(nil); n != 0 || err != nil {
		t.Fatalf("empty read got %d, %v", n, err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestWaitingReadersCountsSuspendedReads(t *testing.T) {
	e := newEngine(t, mflow.WithDefaultTimeout(5*time.Second))
	r := open(t, e, 14)
	w := open(t, e, 14)

	if _, err := w.Write([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if n, _ := r.Read(make([]byte, 3)); n != 3 {
		t.Fatalf("read got %d, want 3", n)
	}
	if n, _ := e.WaitingReaders(14, mflow.High); n != 0 {
		t.Fatalf("waiting readers after satisfied read got %d, want 0", n)
	}

	if _, err := w.Write([]byte("xyz")); err != nil {
		t.Fatal(err)
	}
	done := make(chan int)
	go func() {
		n, _ := r.Read(make([]byte, 6))
		done <- n
	}()
	// The reader takes "xyz" at once and suspends for the rest.
	for {
		if n, _ := e.WaitingReaders(14, mflow.High); n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := w.Write([]byte("123")); err != nil {
		t.Fatal(err)
	}
	if n := <-done; n != 6 {
		t.Fatalf("read got %d, want 6", n)
	}
	if n, _ := e.WaitingReaders(14, mflow.High); n != 0 {
		t.Fatalf("waiting readers got %d, want 0", n)
	}
}
