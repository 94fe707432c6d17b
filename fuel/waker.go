package fuel

import "sync/atomic"

// executorHandle is the weak back-reference a Waker holds to its
// Executor. Shutdown clears it, so wakes arriving after the executor is
// gone become no-ops rather than dangling pointers, per the runtime's
// redesign note on breaking the waker/executor reference cycle.
type executorHandle struct {
	ptr atomic.Pointer[Executor]
}

func newExecutorHandle(e *Executor) *executorHandle {
	h := &executorHandle{}
	h.ptr.Store(e)
	return h
}

func (h *executorHandle) upgrade() *Executor {
	return h.ptr.Load()
}

func (h *executorHandle) invalidate() {
	h.ptr.Store(nil)
}

// Waker re-schedules a suspended task. It is safe to invoke Wake from any
// goroutine the embedding host permits, including a timer or an I/O
// reactor callback running outside the executor's own single-threaded
// poll loop.
type Waker struct {
	taskID TaskID
	handle *executorHandle
}

// Wake queues the task to move from Waiting to Ready. It never polls the
// task directly and never transitions state synchronously — even a
// self-wake called from inside the task's own Poll step only takes
// effect at the next PollTasks call, per the executor's no-reentrant-poll
// ordering guarantee. Waking a task that is not Waiting by the time the
// wake is applied, or whose executor has shut down, is a safe no-op.
func (w *Waker) Wake() {
	if e := w.handle.upgrade(); e != nil {
		e.queueWake(w.taskID)
	}
}

// TaskID returns the task this waker belongs to.
func (w *Waker) TaskID() TaskID { return w.taskID }
