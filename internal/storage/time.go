package storage

import "time"

func timeNowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
