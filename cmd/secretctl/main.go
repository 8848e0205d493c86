// Command secretctl seals and opens webhook signing secrets with the
// AES_256_KEY_BASE64 key the API uses for connector accounts.
package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"paymentswitch/internal/domain/merchant"
)

func main() {
	if len(os.Args) != 3 || (os.Args[1] != "encrypt" && os.Args[1] != "decrypt") {
		fmt.Println("usage: secretctl encrypt|decrypt <value>")
		os.Exit(1)
	}
	keyB64 := os.Getenv("AES_256_KEY_BASE64")
	if keyB64 == "" {
		fmt.Println("AES_256_KEY_BASE64 is not set")
		os.Exit(1)
	}
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil || len(key) != 32 {
		fmt.Println("AES_256_KEY_BASE64 must be valid base64 of 32 bytes")
		os.Exit(1)
	}

	var out string
	if os.Args[1] == "encrypt" {
		out, err = merchant.EncryptSecret(os.Args[2], key)
	} else {
		out, err = merchant.DecryptSecret(os.Args[2], key)
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println(out)
}
