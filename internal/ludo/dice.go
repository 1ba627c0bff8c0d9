package ludo

import (
	"crypto/rand"
	"math/big"
)

// RollDie draws a uniform value in 1..6 from crypto/rand.
func RollDie() int {
	n, err := rand.Int(rand.Reader, big.NewInt(DiceMax))
	if err != nil {
		// Fallback - should never happen
		n = big.NewInt(0)
	}
	return int(n.Int64()) + 1
}
