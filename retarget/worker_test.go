package retarget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bindpose/autorig/geom"
	"github.com/bindpose/autorig/rig"
)

func workerRequest(duration float32, footIK bool) *Request {
	s := testHumanoid(1)
	return &Request{
		Target:  s,
		Source:  testHumanoid(1),
		Mapping: identityMapping(s),
		Clip: &Clip{
			Name:     "clip",
			Duration: duration,
			Channels: map[string]*Channel{
				"Hips": {
					Target:    "Hips",
					Times:     []float32{0, duration},
					Rotations: []geom.Quaternion{{W: 1}, {W: 1}},
				},
			},
		},
		Options: Options{FrameRate: 30, FootIK: footIK},
	}
}

func TestWorkerSubmit(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := w.Submit(ctx, workerRequest(0.5, false))
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || res.Clip == nil {
		t.Fatal("no result")
	}
}

func TestWorkerValidationError(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	_, err := w.Submit(context.Background(), &Request{})
	if err == nil {
		t.Fatal("invalid request accepted")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("rejection reported as timeout: ", err)
	}
	if errors.Is(err, ErrRunFailed) {
		t.Error("rejection reported as run failure: ", err)
	}
}

func TestWorkerTimeout(t *testing.T) {
	w := NewWorker()

	// occupy the worker with a deliberately heavy run
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Submit(context.Background(), workerRequest(1200, true))
	}()

	time.Sleep(10 * time.Millisecond) // let the heavy job start

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err := w.Submit(ctx, workerRequest(0.1, false))
	if !errors.Is(err, ErrTimeout) {
		t.Fatal("busy worker should time the caller out: ", err)
	}

	wg.Wait()
	w.Close()
}

func TestWorkerRecoversPanic(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	// a role table pointing outside the skeleton crashes the height
	// measurement; the worker must turn that into a run failure
	req := workerRequest(0.1, false)
	bad := rig.NewRoleTable()
	bad[rig.RoleHips] = 0
	bad[rig.RoleHead] = 99
	req.TargetRoles = &bad

	_, err := w.Submit(context.Background(), req)
	if err == nil {
		t.Fatal("panicking run reported success")
	}
	if !errors.Is(err, ErrRunFailed) {
		t.Error("crash not marked as run failure: ", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("crash reported as timeout: ", err)
	}

	// the worker goroutine survived and serves the next request
	if _, err := w.Submit(context.Background(), workerRequest(0.1, false)); err != nil {
		t.Fatal("worker dead after recovered panic: ", err)
	}
}
