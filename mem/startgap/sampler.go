package startgap

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/sarchlab/startgap/sim"
)

// SamplingPolicy decides which write events a SampledHook forwards. Rotation
// and shutdown events are always forwarded.
type SamplingPolicy struct {
	// Head forwards the first Head writes unconditionally.
	Head uint64

	// Every forwards one write out of Every after the head. Zero forwards
	// none.
	Every uint64

	// HashModulo, when positive, replaces Every: a write is forwarded when
	// the hash of its logical line is divisible by HashModulo. The same lines
	// are then followed for the whole run.
	HashModulo uint64
}

// DefaultSamplingPolicy prints the first 20 writes and then every 100th.
func DefaultSamplingPolicy() SamplingPolicy {
	return SamplingPolicy{Head: 20, Every: 100}
}

// A SampledHook thins out the write events reaching another hook.
type SampledHook struct {
	inner  sim.Hook
	policy SamplingPolicy
	seen   atomic.Uint64
}

// NewSampledHook wraps inner with the sampling policy.
func NewSampledHook(inner sim.Hook, policy SamplingPolicy) *SampledHook {
	return &SampledHook{inner: inner, policy: policy}
}

// Func forwards ctx to the wrapped hook if the policy selects it.
func (h *SampledHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosWrite {
		h.inner.Func(ctx)
		return
	}

	write, ok := ctx.Item.(WriteDetail)
	if !ok {
		return
	}

	if h.selects(write) {
		h.inner.Func(ctx)
	}
}

func (h *SampledHook) selects(write WriteDetail) bool {
	n := h.seen.Add(1)
	if n <= h.policy.Head {
		return true
	}

	if h.policy.HashModulo > 0 {
		var key [8]byte
		binary.LittleEndian.PutUint64(key[:], write.LogicalLine)

		return xxhash.Sum64(key[:])%h.policy.HashModulo == 0
	}

	if h.policy.Every == 0 {
		return false
	}

	return n%h.policy.Every == 0
}
