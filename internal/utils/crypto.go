package utils

import "crypto/rand"

// GenerateRandomKey returns 32 bytes from the CSPRNG, used for the JWT
// signing secret created on first run.
func GenerateRandomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		// crypto/rand failure means the platform is broken; nothing
		// sensible to return.
		panic(err)
	}
	return key
}
