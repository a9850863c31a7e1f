package randomness

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"prizepool/domain/interfaces"

	sdkmath "cosmossdk.io/math"
)

// Bits is the width of every drawn value
const Bits = 256

var upperBound = new(big.Int).Lsh(big.NewInt(1), Bits)

// CryptoSource draws uniform 256-bit values from a cryptographic reader
type CryptoSource struct {
	reader io.Reader
}

var _ interfaces.RandomnessSource = (*CryptoSource)(nil)

// NewCryptoSource creates a source reading from crypto/rand
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{reader: rand.Reader}
}

// NewCryptoSourceFromReader creates a source over an explicit entropy reader
func NewCryptoSourceFromReader(reader io.Reader) *CryptoSource {
	return &CryptoSource{reader: reader}
}

// FetchRandom returns a value uniform in [0, 2^256)
func (s *CryptoSource) FetchRandom(ctx context.Context) (sdkmath.Int, error) {
	if err := ctx.Err(); err != nil {
		return sdkmath.Int{}, err
	}

	v, err := rand.Int(s.reader, upperBound)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to read entropy: %w", err)
	}
	return sdkmath.NewIntFromBigInt(v), nil
}
