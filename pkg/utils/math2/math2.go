// Copyright 2016 CodisLabs. All Rights Reserved.
// Licensed under the MIT (MIT-LICENSE.txt) license.

package math2

func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func MinMaxInt(v, min, max int) int {
	if min <= max {
		v = MaxInt(v, min)
		v = MinInt(v, max)
		return v
	}
	return MinMaxInt(v, max, min)
}
