package realtime

import (
	"hash/fnv"
)

type fanoutJob struct {
	channel string
	payload []byte
}

// Fanout spreads delivery work over a fixed worker pool. A channel is pinned
// to one worker by hash, so jobs for the same channel run in enqueue order
// (per-channel FIFO) while distinct channels proceed in parallel.
type Fanout struct {
	queues  []chan fanoutJob
	deliver func(channel string, payload []byte)
	stop    chan struct{}
}

func NewFanout(workers, queue int, deliver func(channel string, payload []byte)) *Fanout {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = 256
	}
	f := &Fanout{
		queues:  make([]chan fanoutJob, workers),
		deliver: deliver,
		stop:    make(chan struct{}),
	}
	for i := range f.queues {
		q := make(chan fanoutJob, queue)
		f.queues[i] = q
		go func() {
			for {
				select {
				case job := <-q:
					f.deliver(job.channel, job.payload)
				case <-f.stop:
					return
				}
			}
		}()
	}
	return f
}

// Enqueue schedules one publish. Returns false when the pinned worker queue
// is saturated; the event is dropped (fire-and-forget, never blocks the
// publisher).
func (f *Fanout) Enqueue(channel string, payload []byte) bool {
	if channel == "" || len(payload) == 0 {
		return false
	}
	q := f.queues[f.pick(channel)]
	select {
	case q <- fanoutJob{channel: channel, payload: payload}:
		return true
	default:
		return false
	}
}

func (f *Fanout) Close() { close(f.stop) }

func (f *Fanout) pick(channel string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(channel))
	return int(h.Sum32() % uint32(len(f.queues)))
}
