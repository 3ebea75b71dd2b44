/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"crypto/rand"
	"math/big"
)

const (
	LetterRunes    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	LenRunes       = len(LetterRunes)
	letterIdxBits  = 6
	letterIdxMask  = 1<<letterIdxBits - 1
)

// CryptoRandS returns a cryptographically random alphanumeric string of
// length l, used for daemon IDs and other identifiers that must not be
// predictable across runs.
func CryptoRandS(l int) string {
	b := make([]byte, l)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(LenRunes)))
		if err != nil {
			// crypto/rand failing is unrecoverable for ID generation
			panic(err)
		}
		b[i] = LetterRunes[n.Int64()]
	}
	return UnsafeS(b)
}

func Plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
