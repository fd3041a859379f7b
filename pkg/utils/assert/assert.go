// Copyright 2016 CodisLabs. All Rights Reserved.
// Licensed under the MIT (MIT-LICENSE.txt) license.

package assert

import "github.com/tsegismont/vertx-redis-client/pkg/utils/log"

func Must(b bool) {
	if b {
		return
	}
	log.Panicf("assertion failed")
}

func MustNoError(err error) {
	if err == nil {
		return
	}
	log.PanicErrorf(err, "error happens, assertion failed")
}
