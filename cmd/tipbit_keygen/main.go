// Command tipbit_keygen prints fresh key material for the encryption service:
// a storage key and a transit key pair, encoded ready for the environment.
package main

import (
	"fmt"
	"os"

	"github.com/tipbit/tipbit-backend/internal/core/services"
)

func main() {
	storageKey, err := services.GenerateStorageKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate storage key: %v\n", err)
		os.Exit(1)
	}
	transitPublic, transitPrivate, err := services.GenerateTransitKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate transit key pair: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("STORAGE_ENCRYPTION_KEY=%s\n", storageKey)
	fmt.Printf("TRANSIT_PUBLIC_KEY=%s\n", transitPublic)
	fmt.Printf("TRANSIT_PRIVATE_KEY=%s\n", transitPrivate)
}
