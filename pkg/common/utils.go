// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// CoinFlip returns true with probability 0.5. Used to randomize which
// physical side a room's first team lands on.
func CoinFlip() bool {
	source := rand.NewSource(time.Now().UnixNano())
	random := rand.New(source)

	return random.Intn(2) == 0
}

// LogJSONFormatter is printing the data in log
func LogJSONFormatter(data interface{}) string {
	response, err := json.Marshal(data)
	if err != nil {
		logrus.Errorf("failed to marshal json.")

		return ""
	}
	return string(response)
}
