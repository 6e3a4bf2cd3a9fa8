package utils

import "sync"

// PartitionMap splits index range [0, MaxIndex) into ParallelDegree contiguous
// buckets with a maximum imbalance of one item. Pack/unpack loops use it to
// spread strided copies across cores; the iterations carry no cross-iteration
// dependency.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	var (
		k1, k2 = pm.GetBucketRange(bn)
	)
	kMax = k2 - k1
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}

// ParallelFor runs f over [0, maxIndex) split across nThreads goroutines and
// waits for completion. nThreads <= 1 or a tiny range runs inline.
func ParallelFor(nThreads, maxIndex int, f func(kMin, kMax int)) {
	if nThreads <= 1 || maxIndex < 2*nThreads {
		f(0, maxIndex)
		return
	}
	var (
		pm = NewPartitionMap(nThreads, maxIndex)
		wg sync.WaitGroup
	)
	for n := 0; n < nThreads; n++ {
		kMin, kMax := pm.GetBucketRange(n)
		wg.Add(1)
		go func(kMin, kMax int) {
			defer wg.Done()
			f(kMin, kMax)
		}(kMin, kMax)
	}
	wg.Wait()
}
