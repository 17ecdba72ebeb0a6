package timer

import (
	"container/heap"
	"time"
)

type virtualTimer struct {
	expireAt time.Duration
	seq      uint64
	callback func()
	index    int
}

type timerQueue []*virtualTimer

func (tq timerQueue) Len() int {
	return len(tq)
}

func (tq timerQueue) Less(i, j int) bool {
	if tq[i].expireAt == tq[j].expireAt {
		return tq[i].seq < tq[j].seq
	}
	return tq[i].expireAt < tq[j].expireAt
}

func (tq timerQueue) Swap(i, j int) {
	tq[i], tq[j] = tq[j], tq[i]
	tq[i].index = i
	tq[j].index = j
}

func (tq *timerQueue) Push(x interface{}) {
	t := x.(*virtualTimer)
	t.index = len(*tq)
	*tq = append(*tq, t)
}

func (tq *timerQueue) Pop() interface{} {
	old := *tq
	t := old[len(old)-1]
	t.index = -1
	*tq = old[:len(old)-1]
	return t
}

// Virtual is a deterministic scheduler driven by explicit calls to Advance or
// RunUntilIdle. Time starts at zero and only moves when told to.
type Virtual struct {
	now    time.Duration
	seq    uint64
	timers timerQueue
}

var _ Scheduler = &Virtual{}

// NewVirtual returns a scheduler at virtual time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Duration {
	return v.now
}

// Pending returns the number of callbacks waiting to fire.
func (v *Virtual) Pending() int {
	return len(v.timers)
}

// AfterFunc schedules fn at Now()+delay. Callbacks due at the same instant run
// in the order they were scheduled.
func (v *Virtual) AfterFunc(delay time.Duration, fn func()) Token {
	if delay < 0 {
		delay = 0
	}
	v.seq++
	t := &virtualTimer{
		expireAt: v.now + delay,
		seq:      v.seq,
		callback: fn,
		index:    -1,
	}
	heap.Push(&v.timers, t)
	return func() {
		if t.index != -1 {
			heap.Remove(&v.timers, t.index)
		}
	}
}

func (v *Virtual) runDue() {
	for len(v.timers) > 0 && v.timers[0].expireAt <= v.now {
		t := heap.Pop(&v.timers).(*virtualTimer)
		t.callback()
	}
}

// Advance moves virtual time forward by d, firing every callback that comes
// due on the way, each at its own expiry time.
func (v *Virtual) Advance(d time.Duration) {
	target := v.now + d
	v.runDue()
	for v.now < target {
		if len(v.timers) > 0 && v.timers[0].expireAt <= target {
			v.now = v.timers[0].expireAt
		} else {
			v.now = target
		}
		v.runDue()
	}
}

// Step fires the next pending callback, moving time to its expiry. It returns
// false when nothing is pending.
func (v *Virtual) Step() bool {
	if len(v.timers) == 0 {
		return false
	}
	if at := v.timers[0].expireAt; at > v.now {
		v.now = at
	}
	t := heap.Pop(&v.timers).(*virtualTimer)
	t.callback()
	return true
}

// RunUntilIdle fires callbacks until none are pending or limit callbacks have
// run. It returns the number of callbacks fired.
func (v *Virtual) RunUntilIdle(limit int) int {
	n := 0
	for n < limit && v.Step() {
		n++
	}
	return n
}
