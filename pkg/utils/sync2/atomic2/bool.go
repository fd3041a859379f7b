// Copyright 2016 CodisLabs. All Rights Reserved.
// Licensed under the MIT (MIT-LICENSE.txt) license.

package atomic2

import "sync/atomic"

type Bool struct {
	v int64
}

func toInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (a *Bool) Bool() bool {
	return atomic.LoadInt64(&a.v) != 0
}

func (a *Bool) IsTrue() bool {
	return a.Bool()
}

func (a *Bool) IsFalse() bool {
	return !a.Bool()
}

func (a *Bool) Set(b bool) {
	atomic.StoreInt64(&a.v, toInt64(b))
}

func (a *Bool) CompareAndSwap(o, n bool) bool {
	return atomic.CompareAndSwapInt64(&a.v, toInt64(o), toInt64(n))
}

func (a *Bool) Swap(b bool) bool {
	return atomic.SwapInt64(&a.v, toInt64(b)) != 0
}
