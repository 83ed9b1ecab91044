package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrClosed is reported for jobs submitted to, or still queued in, a closed
// runner.
var ErrClosed = errors.New("task runner closed")

// Job is one unit of remote work. It runs on the worker goroutine and
// returns the message the UI receives when it finishes.
type Job func(ctx context.Context) tea.Msg

// ErrMsg is delivered in place of a job's own message when the job could
// not run or panicked.
type ErrMsg struct {
	Err error
}

type request struct {
	job   Job
	reply chan tea.Msg
}

// Runner executes jobs one at a time, strictly in submission order, on a
// single worker goroutine.
type Runner struct {
	mu      sync.Mutex
	queue   []request
	closed  bool
	running context.CancelFunc

	wake chan struct{}
	base context.Context
	stop context.CancelFunc
	done chan struct{}
}

// NewRunner starts the worker goroutine.
func NewRunner() *Runner {
	base, stop := context.WithCancel(context.Background())
	r := &Runner{
		wake: make(chan struct{}, 1),
		base: base,
		stop: stop,
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

// Do queues job immediately and returns a command that waits for its
// message. Queue order is the order of Do calls, not of command execution.
func (r *Runner) Do(job Job) tea.Cmd {
	reply := make(chan tea.Msg, 1)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		reply <- ErrMsg{Err: ErrClosed}
	} else {
		r.queue = append(r.queue, request{job: job, reply: reply})
		r.mu.Unlock()
		select {
		case r.wake <- struct{}{}:
		default:
		}
	}

	return func() tea.Msg {
		return <-reply
	}
}

// Busy reports whether a job is running or queued.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running != nil || len(r.queue) > 0
}

// Cancel cancels the job in flight, if any. Queued jobs still run.
func (r *Runner) Cancel() {
	r.mu.Lock()
	cancel := r.running
	r.mu.Unlock()
	if cancel != nil {
		log.Printf("[task] cancelling running job")
		cancel()
	}
}

// Close cancels the running job, fails every queued job with ErrClosed and
// waits for the worker to exit. It is safe to call more than once.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	pending := r.queue
	r.queue = nil
	r.mu.Unlock()

	r.stop()
	for _, req := range pending {
		req.reply <- ErrMsg{Err: ErrClosed}
	}
	<-r.done
}

func (r *Runner) loop() {
	defer close(r.done)
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			closed := r.closed
			r.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-r.wake:
			case <-r.base.Done():
			}
			continue
		}
		req := r.queue[0]
		r.queue = r.queue[1:]
		ctx, cancel := context.WithCancel(r.base)
		r.running = cancel
		r.mu.Unlock()

		msg := run(ctx, req.job)

		r.mu.Lock()
		r.running = nil
		r.mu.Unlock()
		cancel()
		req.reply <- msg
	}
}

func run(ctx context.Context, job Job) (msg tea.Msg) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[task] job panicked: %v", p)
			msg = ErrMsg{Err: fmt.Errorf("job panicked: %v", p)}
		}
	}()
	return job(ctx)
}
