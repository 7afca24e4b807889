package util

import (
	"sync"
	"time"
)

var (
	kstOnce sync.Once
	kstLoc  *time.Location
)

// KST returns Asia/Seoul, falling back to a fixed +09:00 zone when tzdata is missing.
func KST() *time.Location {
	kstOnce.Do(func() {
		loc, err := time.LoadLocation("Asia/Seoul")
		if err != nil {
			loc = time.FixedZone("KST", 9*60*60)
		}
		kstLoc = loc
	})
	return kstLoc
}

func FormatKST(t time.Time, layout string) string {
	return t.In(KST()).Format(layout)
}
