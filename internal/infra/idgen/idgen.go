package idgen

import (
	"crypto/rand"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ULIDIssuer hands out 26 character, time ordered access tokens.
type ULIDIssuer struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func NewULIDIssuer() *ULIDIssuer {
	return &ULIDIssuer{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Issue returns a new token. Tokens issued within the same millisecond stay
// strictly increasing.
func (i *ULIDIssuer) Issue() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(i.now()), i.entropy).String()
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// OrderNumberGenerator produces ORD-YYYYMMDD-XXXXX.
type OrderNumberGenerator struct {
	random io.Reader
}

func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{random: rand.Reader}
}

// Next fails only when the random source does.
func (g *OrderNumberGenerator) Next(now time.Time) (string, error) {
	b := make([]byte, 5)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range b {
		n, err := rand.Int(g.random, max)
		if err != nil {
			return "", err
		}
		b[i] = orderNumberAlphabet[n.Int64()]
	}
	return "ORD-" + now.Format("20060102") + "-" + string(b), nil
}

// UUIDGenerator is used for event ids.
type UUIDGenerator struct{}

func (g UUIDGenerator) NewID() string {
	return uuid.NewString()
}
