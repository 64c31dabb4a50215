package service

import (
	"crypto/rand"
	"math/big"
)

const (
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*"
	allChars     = upperChars + lowerChars + digitChars + specialChars

	// TemporaryPasswordLength is the length of generated passwords.
	TemporaryPasswordLength = 12
)

// GenerateTemporaryPassword returns a random password of length n (at least
// four) holding one upper, lower, digit and special character.
func GenerateTemporaryPassword(n int) (string, error) {
	if n < 4 {
		n = 4
	}
	out := make([]byte, 0, n)
	for _, set := range []string{upperChars, lowerChars, digitChars, specialChars} {
		ch, err := pick(set)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}
	for len(out) < n {
		ch, err := pick(allChars)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}

	// Fisher-Yates
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		k := j.Int64()
		out[i], out[k] = out[k], out[i]
	}
	return string(out), nil
}

func pick(set string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[idx.Int64()], nil
}
