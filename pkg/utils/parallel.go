package utils

import "sync"

// ParallelMap 以固定 worker 数并行处理 input，输出与输入顺序一一对应。
// 单元素输入直接在当前 goroutine 处理，避免无谓的并发开销。
func ParallelMap[T any, R any](input []T, workers int, fn func(T) R) []R {
	n := len(input)
	if n == 0 {
		return nil
	}
	results := make([]R, n)
	if n == 1 || workers <= 1 {
		for i, v := range input {
			results[i] = fn(v)
		}
		return results
	}
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	indexes := make(chan int, n)
	for i := 0; i < n; i++ {
		indexes <- i
	}
	close(indexes)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = fn(input[i])
			}
		}()
	}
	wg.Wait()
	return results
}
