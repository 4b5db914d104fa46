package gamecache

import "sync"

// fanOut 对前 limit 个元素并发执行 fetch，超出 limit 的元素原样透传。
// limit <= 0 表示不限量。所有任务一起启动、一起等待；单个元素的失败由
// fetch 自行吞掉（返回未修改的元素），不会中断或拖垮兄弟任务。
func fanOut[T any](items []T, limit int, fetch func(index int, item T) T) []T {
	if len(items) == 0 {
		return nil
	}

	out := make([]T, len(items))
	copy(out, items)

	n := len(items)
	if limit > 0 && n > limit {
		n = limit
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = fetch(i, out[i])
		}(i)
	}
	wg.Wait()

	return out
}
