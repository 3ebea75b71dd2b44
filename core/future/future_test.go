/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package future_test

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hoolamike-go/hoolamike/core/future"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	It("runs the function exactly once for concurrent callers sharing a key", func() {
		reg := future.New[int]()
		var calls int32

		const n = 32
		var wg sync.WaitGroup
		results := make([]int, n)
		shared := make([]bool, n)
		wg.Add(n)
		for i := range n {
			go func(i int) {
				defer wg.Done()
				v, s, err := reg.Do("k", func() (int, error) {
					atomic.AddInt32(&calls, 1)
					return 42, nil
				})
				Expect(err).ToNot(HaveOccurred())
				results[i] = v
				shared[i] = s
			}(i)
		}
		wg.Wait()

		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
		for _, v := range results {
			Expect(v).To(Equal(42))
		}
	})

	It("caches a failure for the in-flight call but re-attempts on the next Do", func() {
		reg := future.New[int]()
		boom := errors.New("boom")

		_, _, err := reg.Do("k", func() (int, error) { return 0, boom })
		Expect(err).To(MatchError(boom))

		v, _, err := reg.Do("k", func() (int, error) { return 7, nil })
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(7))
	})

	It("allows a fresh call after Forget", func() {
		reg := future.New[int]()
		var calls int32
		_, _, _ = reg.Do("k", func() (int, error) {
			atomic.AddInt32(&calls, 1)
			return 1, nil
		})
		reg.Forget("k")
		_, _, _ = reg.Do("k", func() (int, error) {
			atomic.AddInt32(&calls, 1)
			return 1, nil
		})
		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(2)))
	})
})
