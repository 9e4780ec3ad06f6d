package chatid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind selects the public id prefix for a platform entity.
type Kind string

const (
	KindConversation Kind = "conv"
	KindMessage      Kind = "msg"
	KindTicket       Kind = "tkt"
	KindAgent        Kind = "agt"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns a prefixed ULID string, e.g. conv_01hq3....
func New(kind Kind) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return string(kind) + "_" + strings.ToLower(id.String())
}

// IsValid reports whether value is a ULID carrying the given prefix.
func IsValid(kind Kind, value string) bool {
	if !strings.HasPrefix(value, string(kind)+"_") {
		return false
	}
	_, err := Parse(kind, value)
	return err == nil
}

// Parse strips the kind prefix and returns the ULID.
func Parse(kind Kind, value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, string(kind)+"_")
	return ulid.Parse(value)
}
