// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package balance

import (
	"errors"
	"time"

	"github.com/dota2classic/matchmaker/pkg/envelope"
	"github.com/dota2classic/matchmaker/pkg/models"
)

// Task is the typed description of one search, safe to hand to an isolated
// worker: a pool snapshot, a scoring function discriminator and predicate
// descriptors. The worker resolves real functions from static registries.
type Task struct {
	Pool       []models.Party             `json:"pool"`
	Function   models.BalanceFunctionType `json:"function"`
	Predicates []PredicateDescriptor      `json:"predicates"`
	TimeBudget time.Duration              `json:"time_budget"`

	// Now anchors every queue-time measurement of this search.
	Now time.Time `json:"now"`
}

// Result is the plain-data answer marshalled back from a worker.
type Result struct {
	Split Split `json:"split"`
	Found bool  `json:"found"`

	// Expired is set when the wall-clock budget cut the search short.
	Expired bool `json:"expired"`
}

// Runner executes a balance search. The scheduler only depends on this so
// the CPU-bound enumeration can be moved off its loop.
type Runner interface {
	Run(scope *envelope.Scope, task Task) (Result, error)
}

// RunTask resolves the task against the registries and executes the search
// in the calling goroutine.
func RunTask(task Task) (Result, error) {
	if countPlayers(task.Pool) < RequiredPlayers(task.Predicates) {
		return Result{}, nil
	}

	scoreFn, err := ByType(task.Function, task.Now)
	if err != nil {
		return Result{}, err
	}

	predicates := make([]Predicate, 0, len(task.Predicates))
	for _, d := range task.Predicates {
		predicate, buildErr := d.Build(task.Pool, task.Now)
		if buildErr != nil {
			return Result{}, buildErr
		}
		predicates = append(predicates, predicate)
	}

	split, found, expired := FindBestSplit(task.Pool, scoreFn, task.TimeBudget, predicates)
	return Result{Split: split, Found: found, Expired: expired}, nil
}

// InlineRunner runs the search on the caller's goroutine. Used in tests and
// small deployments.
type InlineRunner struct{}

func (InlineRunner) Run(_ *envelope.Scope, task Task) (Result, error) {
	return RunTask(task)
}

// ErrPoolClosed is returned for tasks submitted after Close.
var ErrPoolClosed = errors.New("balance worker pool is closed")

type job struct {
	task  Task
	reply chan reply
}

type reply struct {
	result Result
	err    error
}

// WorkerPool offloads searches to a fixed set of worker goroutines so the
// scheduling loop is never stalled by the exponential enumeration. Each
// submitted pool is deep-copied, so workers never share party state with
// the caller.
type WorkerPool struct {
	jobs chan job
	done chan struct{}
}

func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	wp := &WorkerPool{
		jobs: make(chan job),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go wp.work()
	}
	return wp
}

func (wp *WorkerPool) work() {
	for {
		select {
		case <-wp.done:
			return
		case j := <-wp.jobs:
			result, err := RunTask(j.task)
			j.reply <- reply{result: result, err: err}
		}
	}
}

func (wp *WorkerPool) Run(scope *envelope.Scope, task Task) (Result, error) {
	snapshot := make([]models.Party, 0, len(task.Pool))
	for _, p := range task.Pool {
		snapshot = append(snapshot, p.Copy())
	}
	task.Pool = snapshot

	j := job{task: task, reply: make(chan reply, 1)}
	select {
	case <-wp.done:
		return Result{}, ErrPoolClosed
	case wp.jobs <- j:
	}

	select {
	case r := <-j.reply:
		if r.err != nil {
			scope.Log.WithError(r.err).Error("balance worker failed")
		}
		return r.result, r.err
	case <-wp.done:
		return Result{}, ErrPoolClosed
	}
}

func (wp *WorkerPool) Close() {
	close(wp.done)
}
