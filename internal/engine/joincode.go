package engine

import "crypto/rand"

// Alphabet without 0/O and 1/I, so codes survive being read aloud.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const joinCodeLen = 6

func newJoinCode() string {
	buf := make([]byte, joinCodeLen)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf)
}
