package runner

import "fmt"

// Shard is the half-open range of trial indices [Start, End) owned by one worker.
type Shard struct {
	Worker int
	Start  int
	End    int
}

func (s Shard) Len() int { return s.End - s.Start }

// Partition splits count trials into workers contiguous shards of count/workers
// trials each. The last shard also takes the remainder. Shards are returned in
// worker order and always number exactly workers, some possibly empty.
func Partition(count, workers int) []Shard {
	if workers < 1 {
		panic(fmt.Sprintf("runner: partition needs at least one worker, got %d", workers))
	}
	if count < 0 {
		panic(fmt.Sprintf("runner: negative trial count %d", count))
	}
	size := count / workers
	shards := make([]Shard, workers)
	for i := range shards {
		shards[i] = Shard{Worker: i, Start: i * size, End: (i + 1) * size}
	}
	shards[workers-1].End = count
	return shards
}
