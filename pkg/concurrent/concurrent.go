package concurrent

import (
	"sync"

	"github.com/tailormade/ecs/pkg/sequence"
)

// ParallelMap applies the mapFn to each element of the iterator in parallel, preserving order.
// The workers parameter controls the number of goroutines.
func ParallelMap[T any, R any](i *sequence.Iterator[T], workers int, mapFn func(T) R) []R {
	in := i.Collect()
	out := make([]R, len(in))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for idx, val := range in {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, v T) {
			defer wg.Done()
			out[i] = mapFn(v)
			<-sem
		}(idx, val)
	}
	wg.Wait()
	return out
}
