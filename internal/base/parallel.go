package base

import "sync"

// ParallelMap applies fn to every item concurrently and returns results in
// the original order, or the first error encountered. Used for
// fingerprinting many input files concurrently (iox.DigestFiles).
func ParallelMap[T, R any](fn func(T) (R, error), items ...T) ([]R, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, it := range items {
		go func(i int, it T) {
			defer wg.Done()
			results[i], errs[i] = fn(it)
		}(i, it)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ParallelJoin runs fn(i, item) for every item concurrently, returning the
// first error if any. Used for removing a batch of evicted cache entries
// in "occ cache gc".
func ParallelJoin[T any](fn func(int, T) error, items ...T) error {
	var wg sync.WaitGroup
	errs := make([]error, len(items))

	wg.Add(len(items))
	for i, it := range items {
		go func(i int, it T) {
			defer wg.Done()
			errs[i] = fn(i, it)
		}(i, it)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
