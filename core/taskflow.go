package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TaskFlow is a DAG of tasks: emplace builds nodes, precede wires
// dependencies, and Run schedules the whole graph onto a Pool, resolving
// each node's successors as it completes rather than executing them inline.
// Grounded on other_examples/981377660LMT-go-taskflow__graph.go's eGraph /
// innerNode shape (join-counter reference counting, entry-node discovery),
// adapted from that library's own worker-driven scheduling to Pool-driven
// scheduling: every ready node is resubmitted through Pool.submitTask rather
// than run by whichever goroutine happened to finish its predecessor, per
// spec.md §4.6.
type TaskFlow struct {
	mu    sync.Mutex
	nodes []*graphNode
	built bool
}

// NodeHandle identifies a node within a TaskFlow for use with Precede,
// Succeed and dependency wiring. It is opaque outside this package.
type NodeHandle struct {
	flow  *TaskFlow
	index int
}

type graphNode struct {
	task Task
	// successors are the nodes that become eligible once this node
	// completes.
	successors []*graphNode
	// staticInDegree is the number of predecessors set up during
	// construction; dynamicInDegree counts down from it during a run.
	staticInDegree  int32
	dynamicInDegree atomic.Int32
}

// NewTaskFlow creates an empty TaskFlow.
func NewTaskFlow() *TaskFlow {
	return &TaskFlow{}
}

// Emplace adds a node running fn and returns a handle to it.
func (f *TaskFlow) Emplace(fn Task) NodeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := &graphNode{task: fn}
	f.nodes = append(f.nodes, n)
	return NodeHandle{flow: f, index: len(f.nodes) - 1}
}

// Precede establishes that a must complete before b starts. Both handles
// must belong to this TaskFlow.
func (f *TaskFlow) Precede(a, b NodeHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	an := f.node(a)
	bn := f.node(b)
	an.successors = append(an.successors, bn)
	bn.staticInDegree++
}

// Succeed establishes that b must complete before a starts — the mirror of
// Precede, supplementing the C++ original's succeed() convenience
// (original_source/src/ThreadLib/task_flow.cpp) that the distilled spec
// dropped in favor of Precede alone.
func (f *TaskFlow) Succeed(a, b NodeHandle) {
	f.Precede(b, a)
}

func (f *TaskFlow) node(h NodeHandle) *graphNode {
	if h.flow != f {
		panic("core: NodeHandle belongs to a different TaskFlow")
	}
	return f.nodes[h.index]
}

// Run schedules every node of the graph onto pool and returns a Future that
// resolves once all nodes have completed. A TaskFlow can be run more than
// once (sequentially); concurrent overlapping runs of the same TaskFlow are
// not supported, mirroring the C++ original's single-instance-in-flight
// contract.
func (f *TaskFlow) Run(ctx context.Context, pool *Pool) *Future[struct{}] {
	f.mu.Lock()
	nodes := f.nodes
	f.mu.Unlock()

	future := newFuture[struct{}]()
	if len(nodes) == 0 {
		future.fulfil(struct{}{}, nil)
		return future
	}

	remaining := atomic.Int32{}
	remaining.Store(int32(len(nodes)))

	var entries []*graphNode
	for _, n := range nodes {
		n.dynamicInDegree.Store(n.staticInDegree)
		if n.staticInDegree == 0 {
			entries = append(entries, n)
		}
	}

	// finish fulfils the graph future exactly once: on ordinary completion
	// with a nil error, or on the first submission failure with ErrStopped.
	// A Future panics if fulfilled twice, so every path that can complete
	// the run funnels through this instead of calling future.fulfil
	// directly.
	var once sync.Once
	finish := func(err error) {
		once.Do(func() { future.fulfil(struct{}{}, err) })
	}

	var schedule func(n *graphNode)
	schedule = func(n *graphNode) {
		wrapped := Task(func(taskCtx context.Context) {
			workerIdx, _ := currentWorkerIndex(taskCtx, pool.id)
			start := time.Now()
			if err := runProtected(func() { n.task(taskCtx) }); err != nil {
				pool.reportOutcome(taskCtx, workerIdx, start, err)
			}
			for _, succ := range n.successors {
				if succ.dynamicInDegree.Add(-1) == 0 {
					schedule(succ)
				}
			}
			if remaining.Add(-1) == 0 {
				finish(nil)
			}
		})
		// A pool that has already stopped (or stops mid-run, which the
		// no-drain shutdown contract explicitly allows) rejects the
		// submission and never runs wrapped, so remaining is never
		// decremented for n or its descendants. Without this, the graph
		// future would hang forever instead of reporting the failure, unlike
		// Submit[R] which always fulfils its own future.
		if !pool.submitTask(ctx, wrapped) {
			pool.cfg.Logger.Warn("taskflow node rejected, pool stopped", F("pool_id", pool.id))
			finish(ErrStopped)
		}
	}

	for _, n := range entries {
		schedule(n)
	}
	return future
}

// NodeCount reports how many nodes the graph currently has.
func (f *TaskFlow) NodeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nodes)
}
