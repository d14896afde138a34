package main

import (
	"fmt"
	"log"

	"github.com/x402-demos/agent-launchpad/crypto"
)

// Generate a new EVM keypair for a master or agent wallet.
func main() {
	address, signingKey, err := crypto.GenerateWallet()
	if err != nil {
		log.Fatalf("Failed to generate key pair: %v", err)
	}
	fmt.Println("Address:", address)
	fmt.Println("Private Key:", signingKey)
}
