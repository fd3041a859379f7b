// Copyright 2016 CodisLabs. All Rights Reserved.
// Licensed under the MIT (MIT-LICENSE.txt) license.

package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/errors"
	"github.com/tsegismont/vertx-redis-client/pkg/utils/log"
)

func ApiResponseError(err error) (int, string) {
	if err == nil {
		return 800, ""
	}
	return 800, errors.Cause(err).Error()
}

func ApiResponseJson(v interface{}) (int, string) {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		log.WarnErrorf(err, "rpc encode to json failed")
		return ApiResponseError(errors.Trace(err))
	}
	return http.StatusOK, string(b)
}
