package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDs are sortable, which keeps call history indexes and dashboards tidy.

func NewCallID() string {
	t := time.Now().UTC()
	return "call_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NewSummaryID() string {
	t := time.Now().UTC()
	return "sum_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NewBeneficiaryID() string {
	t := time.Now().UTC()
	return "ben_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}
