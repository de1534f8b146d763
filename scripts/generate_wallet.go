package main

import (
	"fmt"
	"os"

	solanapkg "tradecontrol/pkg/solana"
)

// Generates a Solana trading wallet and writes an encrypted keystore entry
// under configs/keystore. Usage:
//
//	go run scripts/generate_wallet.go <keystore-password>
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: generate_wallet <keystore-password>")
		os.Exit(1)
	}
	password := os.Args[1]

	km := solanapkg.NewKeyManager()
	account, err := km.GenerateKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate key pair: %v\n", err)
		os.Exit(1)
	}

	if err := km.SaveKeyStoreEntry(account, password); err != nil {
		fmt.Fprintf(os.Stderr, "save keystore entry: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wallet address: %s\n", account.PublicKey.ToBase58())
	fmt.Println("encrypted keystore entry written to configs/keystore")
}
