package synth

// Job is a note waiting for its start time.
type Job struct {
	Note
	// Start is the virtual clock sample at which the note begins.
	Start uint64
}

// jobQueue is a fixed-capacity ring of jobs kept in ascending Start order,
// first-in first-out among equal starts.
type jobQueue struct {
	jobs []Job
	head int
	n    int
}

func newJobQueue(capacity int) jobQueue {
	return jobQueue{jobs: make([]Job, capacity)}
}

func (q *jobQueue) len() int   { return q.n }
func (q *jobQueue) space() int { return len(q.jobs) - q.n }
func (q *jobQueue) full() bool { return q.n == len(q.jobs) }

func (q *jobQueue) slot(i int) *Job {
	return &q.jobs[(q.head+i)%len(q.jobs)]
}

// front returns the earliest job. The queue must not be empty.
func (q *jobQueue) front() *Job { return q.slot(0) }

func (q *jobQueue) pop() Job {
	j := q.jobs[q.head]
	q.jobs[q.head] = Job{}
	q.head = (q.head + 1) % len(q.jobs)
	q.n--
	return j
}

// insert places j after every queued job starting at or before j.Start.
// Callers guarantee the queue is not full and j does not start before the
// front. In-order requests append in constant time.
func (q *jobQueue) insert(j Job) {
	i := q.n
	for i > 0 && q.slot(i-1).Start > j.Start {
		*q.slot(i) = *q.slot(i - 1)
		i--
	}
	*q.slot(i) = j
	q.n++
}

// at returns the i-th queued job in start order.
func (q *jobQueue) at(i int) Job { return *q.slot(i) }
