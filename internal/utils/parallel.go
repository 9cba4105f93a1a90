// Package utils holds small helpers shared across the engine packages.
package utils

import (
	"runtime"
	"sync"
)

// Execute splits the half-open index range [start, end) into one contiguous
// chunk per CPU and runs work on each chunk concurrently, returning when
// every chunk is done. With fewer iterations than CPUs each chunk is a
// single iteration.
func Execute(start, end int, work func(from, to int)) {
	n := end - start
	if n <= 0 {
		return
	}
	tasks := runtime.GOMAXPROCS(0)
	per := n / tasks
	if per < 1 {
		per = 1
		tasks = n
	}
	extra := n - tasks*per

	var wg sync.WaitGroup
	from := start
	for i := 0; i < tasks; i++ {
		to := from + per
		if extra > 0 {
			to++
			extra--
		}
		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			work(from, to)
		}(from, to)
		from = to
	}
	wg.Wait()
}
