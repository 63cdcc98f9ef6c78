// Package transfer drives the receiving side of a QR transfer: it turns a
// decoded frame into a verified file in the store.
package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/moyoez/qrdrop/checksum"
	"github.com/moyoez/qrdrop/envelope"
	"github.com/moyoez/qrdrop/store"
	"github.com/moyoez/qrdrop/tool"
	"github.com/moyoez/qrdrop/types"
)

var ErrSurfaceClosed = errors.New("capture surface closed")

type Options struct {
	// RenameOnReceive stores every file under a generated name instead of
	// the sender's file name.
	RenameOnReceive bool
	// RejectCooldown suppresses the same rejected frame for this long. Zero disables it.
	RejectCooldown time.Duration
	// FramesPerSecond caps how many frames Listen considers. Zero disables it.
	FramesPerSecond float64
	// OnResult is called after every processed frame.
	OnResult func(Result)
}

// Receiver accepts at most one transfer at a time. The Scanning to Processing
// transition is a compare-and-swap, so concurrent OnDecoded calls are safe.
type Receiver struct {
	store    *store.Store
	surface  CaptureSurface
	opts     Options
	state    atomic.Int32
	cooldown *tool.Cooldown
	limiter  *rate.Limiter
}

func NewReceiver(st *store.Store, surface CaptureSurface, opts Options) *Receiver {
	if surface == nil {
		surface = nopSurface{}
	}
	r := &Receiver{
		store:    st,
		surface:  surface,
		opts:     opts,
		cooldown: tool.NewCooldown(opts.RejectCooldown),
	}
	if opts.FramesPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.FramesPerSecond), 1)
	}
	return r
}

func (r *Receiver) State() State {
	return State(r.state.Load())
}

// Reset returns a finished receiver to Scanning and resumes capture.
func (r *Receiver) Reset() bool {
	if !r.state.CompareAndSwap(int32(StateDone), int32(StateScanning)) {
		return false
	}
	r.surface.Resume()
	return true
}

// OnDecoded runs one transfer for text. Capture is paused before anything is
// written and resumed after a rejection; after Done it stays paused.
func (r *Receiver) OnDecoded(ctx context.Context, text string) Result {
	if !r.state.CompareAndSwap(int32(StateScanning), int32(StateProcessing)) {
		return Result{State: r.State(), Err: ErrBusy}
	}
	r.surface.Pause()

	record, err := r.process(ctx, text)
	if err != nil {
		r.cooldown.Mark(frameKey(text))
		res := Result{State: StateRejected, Err: err}
		tool.DefaultLogger.Warnf("[Receive] Rejected (%s): %v", res.Kind(), err)
		r.state.Store(int32(StateScanning))
		r.surface.Resume()
		r.emit(res)
		return res
	}

	res := Result{State: StateDone, Record: record}
	tool.DefaultLogger.Infof("[Receive] Saved %s/%s (%d bytes)", record.Category.Dir(), record.Name, record.SizeBytes)
	r.state.Store(int32(StateDone))
	r.emit(res)
	return res
}

func (r *Receiver) emit(res Result) {
	if r.opts.OnResult != nil {
		r.opts.OnResult(res)
	}
}

func (r *Receiver) process(ctx context.Context, text string) (types.FileRecord, error) {
	env, err := envelope.Parse(text)
	if err != nil {
		return types.FileRecord{}, err
	}
	data, err := env.Decode()
	if err != nil {
		return types.FileRecord{}, err
	}
	if int64(len(data)) != env.FileSize {
		return types.FileRecord{}, types.NewError(types.KindIntegrityMismatch,
			fmt.Errorf("size mismatch: declared %d, decoded %d", env.FileSize, len(data)))
	}

	name := r.targetName(env.FileName)
	tool.DefaultLogger.Debugf("[Receive] Writing %s (%d bytes) to %s", name, len(data), env.Category.Dir())
	p, err := r.store.SaveProvisional(bytes.NewReader(data), env.Category, name)
	if err != nil {
		return types.FileRecord{}, err
	}

	sum, err := checksum.File(p.Path())
	if err != nil {
		r.discard(p)
		return types.FileRecord{}, types.NewError(types.KindWriteFailure, fmt.Errorf("read back failed: %w", err))
	}
	if sum != env.Checksum {
		r.discard(p)
		return types.FileRecord{}, types.NewError(types.KindIntegrityMismatch,
			fmt.Errorf("hash mismatch: declared %s, stored %s", env.Checksum, sum))
	}
	if err := ctx.Err(); err != nil {
		r.discard(p)
		return types.FileRecord{}, err
	}
	return p.Commit()
}

func (r *Receiver) discard(p *store.Provisional) {
	if err := p.Discard(); err != nil {
		tool.DefaultLogger.Errorf("[Receive] %v", err)
	}
}

// targetName strips any directory part of the sender's name and falls back to
// a generated name when nothing usable is left.
func (r *Receiver) targetName(sent string) string {
	base := sent
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if r.opts.RenameOnReceive || !store.ValidName(base) {
		return r.store.GenerateUniqueName(base)
	}
	return base
}

func frameKey(text string) string {
	return checksum.Bytes([]byte(text))
}

// Listen is the capture loop. Each accepted frame is processed on a worker
// goroutine; the surface is paused meanwhile so it drops what it captures.
// It returns the Done result, ctx.Err(), or ErrSurfaceClosed. A receiver that
// is not Scanning on entry, or that another caller finished meanwhile, yields
// ErrBusy.
func (r *Receiver) Listen(ctx context.Context, frames <-chan string) (Result, error) {
	if state := r.State(); state != StateScanning {
		return Result{State: state, Err: ErrBusy}, ErrBusy
	}
	r.surface.Resume()
	for {
		select {
		case <-ctx.Done():
			r.surface.Pause()
			return Result{State: r.State()}, ctx.Err()
		case text, ok := <-frames:
			if !ok {
				return Result{State: r.State()}, ErrSurfaceClosed
			}
			if r.limiter != nil && !r.limiter.Allow() {
				continue
			}
			if r.cooldown.Active(frameKey(text)) {
				continue
			}
			res, err := r.work(ctx, text)
			if err != nil {
				return res, err
			}
			if errors.Is(res.Err, ErrBusy) {
				if res.State == StateDone {
					return res, ErrBusy
				}
				// another caller is processing
				continue
			}
			if res.State == StateDone {
				return res, nil
			}
		}
	}
}

func (r *Receiver) work(ctx context.Context, text string) (Result, error) {
	done := make(chan Result, 1)
	go func() {
		done <- r.OnDecoded(ctx, text)
	}()
	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		// the worker discards its provisional file once it sees ctx
		res := <-done
		if res.State == StateDone {
			return res, nil
		}
		return res, ctx.Err()
	}
}
