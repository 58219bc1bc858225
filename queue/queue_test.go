package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/kbukum/tpcgraph/errors"
)

var policies = []Policy{Blocking, SpinYield}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		_, _, err := New[int](c, Blocking)
		if !apperrors.Is(err, apperrors.ErrCodeInvalidCapacity) {
			t.Errorf("capacity %d: expected INVALID_CAPACITY, got %v", c, err)
		}
	}
}

func TestNew_UnknownPolicy(t *testing.T) {
	_, _, err := New[int](4, Policy(42))
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestNew_CapAndPolicy(t *testing.T) {
	for _, p := range policies {
		tx, rx, err := New[string](5, p)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", p, err)
		}
		if tx.Cap() != 5 || rx.Cap() != 5 {
			t.Errorf("%s: expected cap 5, got %d/%d", p, tx.Cap(), rx.Cap())
		}
		if tx.Policy() != p || rx.Policy() != p {
			t.Errorf("%s: policy mismatch", p)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", Blocking, false},
		{"blocking", Blocking, false},
		{"SPIN", SpinYield, false},
		{"spin-yield", SpinYield, false},
		{"busy", Blocking, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePolicy(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParsePolicy(%q) err = %v", tc.in, err)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("ParsePolicy(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
	if Blocking.String() != "blocking" || SpinYield.String() != "spin" {
		t.Error("unexpected policy names")
	}
}

// sendAll sends 0..k-1 then closes the producer.
func sendAll(t *testing.T, tx Producer[int], k int) {
	t.Helper()
	go func() {
		defer tx.Close()
		for i := 0; i < k; i++ {
			if err := tx.Send(i); err != nil {
				t.Errorf("send %d: %v", i, err)
				return
			}
		}
	}()
}

func recvAll(rx Consumer[int]) ([]int, error) {
	var got []int
	for {
		v, err := rx.Recv()
		if errors.Is(err, ErrClosed) {
			return got, nil
		}
		if err != nil {
			return got, err
		}
		got = append(got, v)
	}
}

func TestFIFO(t *testing.T) {
	for _, p := range policies {
		for _, k := range []int{0, 1, 7, 5000} {
			t.Run(p.String(), func(t *testing.T) {
				tx, rx, err := New[int](4, p)
				if err != nil {
					t.Fatal(err)
				}
				sendAll(t, tx, k)
				got, err := recvAll(rx)
				if err != nil {
					t.Fatal(err)
				}
				if len(got) != k {
					t.Fatalf("expected %d items, got %d", k, len(got))
				}
				for i, v := range got {
					if v != i {
						t.Fatalf("out of order at %d: got %d", i, v)
					}
				}
			})
		}
	}
}

func TestBackpressure_DelayedConsumer(t *testing.T) {
	const capacity = 8
	for _, p := range policies {
		t.Run(p.String(), func(t *testing.T) {
			tx, rx, err := New[int](capacity, p)
			if err != nil {
				t.Fatal(err)
			}

			var sent sync.WaitGroup
			sent.Add(1)
			var progress int
			var mu sync.Mutex
			go func() {
				defer sent.Done()
				defer tx.Close()
				for i := 0; i < capacity+5; i++ {
					if err := tx.Send(i); err != nil {
						t.Errorf("send %d: %v", i, err)
						return
					}
					mu.Lock()
					progress = i + 1
					mu.Unlock()
				}
			}()

			time.Sleep(50 * time.Millisecond)
			mu.Lock()
			stalled := progress
			mu.Unlock()
			if stalled != capacity {
				t.Errorf("expected producer stalled after %d sends, got %d", capacity, stalled)
			}

			got, err := recvAll(rx)
			if err != nil {
				t.Fatal(err)
			}
			sent.Wait()
			if len(got) != capacity+5 {
				t.Fatalf("expected %d items, got %d", capacity+5, len(got))
			}
			for i, v := range got {
				if v != i {
					t.Fatalf("item %d: got %d", i, v)
				}
			}
		})
	}
}

func TestClosedDrain(t *testing.T) {
	for _, p := range policies {
		t.Run(p.String(), func(t *testing.T) {
			tx, rx, err := New[int](10, p)
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 6; i++ {
				if err := tx.Send(i * 10); err != nil {
					t.Fatal(err)
				}
			}
			tx.Close()
			tx.Close()

			for i := 0; i < 6; i++ {
				v, err := rx.Recv()
				if err != nil {
					t.Fatalf("recv %d: unexpected error %v", i, err)
				}
				if v != i*10 {
					t.Fatalf("recv %d: got %d", i, v)
				}
			}
			if _, err := rx.Recv(); !errors.Is(err, ErrClosed) {
				t.Fatalf("expected ErrClosed after drain, got %v", err)
			}
			if _, err := rx.Recv(); !errors.Is(err, ErrClosed) {
				t.Fatalf("expected ErrClosed to be sticky, got %v", err)
			}
		})
	}
}

func TestSend_ConsumerDropped(t *testing.T) {
	for _, p := range policies {
		t.Run(p.String(), func(t *testing.T) {
			tx, rx, err := New[int](2, p)
			if err != nil {
				t.Fatal(err)
			}
			_ = tx.Send(1)
			_ = tx.Send(2)

			done := make(chan error, 1)
			go func() { done <- tx.Send(3) }()

			time.Sleep(20 * time.Millisecond)
			rx.Close()

			select {
			case err := <-done:
				if !errors.Is(err, ErrClosed) {
					t.Errorf("expected ErrClosed, got %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("blocked Send did not observe consumer drop")
			}
		})
	}
}

func TestRecv_ProducerDroppedWhileWaiting(t *testing.T) {
	for _, p := range policies {
		t.Run(p.String(), func(t *testing.T) {
			tx, rx, err := New[int](2, p)
			if err != nil {
				t.Fatal(err)
			}
			done := make(chan error, 1)
			go func() {
				_, err := rx.Recv()
				done <- err
			}()
			time.Sleep(20 * time.Millisecond)
			tx.Close()
			select {
			case err := <-done:
				if !errors.Is(err, ErrClosed) {
					t.Errorf("expected ErrClosed, got %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("blocked Recv did not observe producer drop")
			}
		})
	}
}

func TestOwnHalfClosed(t *testing.T) {
	for _, p := range policies {
		t.Run(p.String(), func(t *testing.T) {
			tx, rx, err := New[int](2, p)
			if err != nil {
				t.Fatal(err)
			}
			rx.Close()
			if _, err := rx.Recv(); !errors.Is(err, ErrClosed) {
				t.Errorf("Recv on closed consumer: expected ErrClosed, got %v", err)
			}
			tx.Close()
			if err := tx.Send(1); !errors.Is(err, ErrClosed) {
				t.Errorf("Send on closed producer: expected ErrClosed, got %v", err)
			}
		})
	}
}

func TestRing_ExactCapacity(t *testing.T) {
	// 5 rounds up to 8 slots but only 5 items fit.
	tx, rx, err := New[int](5, SpinYield)
	if err != nil {
		t.Fatal(err)
	}
	p := tx.(*ringProducer[int])
	for i := 0; i < 5; i++ {
		if !p.trySend(i) {
			t.Fatalf("trySend %d failed below capacity", i)
		}
	}
	if p.trySend(5) {
		t.Fatal("trySend succeeded beyond capacity")
	}
	if v, err := rx.Recv(); err != nil || v != 0 {
		t.Fatalf("expected 0, got %d (%v)", v, err)
	}
	if !p.trySend(5) {
		t.Fatal("trySend failed after a slot was freed")
	}
}

func TestRing_WrapAround(t *testing.T) {
	tx, rx, err := New[int](3, SpinYield)
	if err != nil {
		t.Fatal(err)
	}
	for round := 0; round < 100; round++ {
		for i := 0; i < 3; i++ {
			if err := tx.Send(round*3 + i); err != nil {
				t.Fatal(err)
			}
		}
		for i := 0; i < 3; i++ {
			v, err := rx.Recv()
			if err != nil || v != round*3+i {
				t.Fatalf("round %d: got %d (%v)", round, v, err)
			}
		}
	}
}
