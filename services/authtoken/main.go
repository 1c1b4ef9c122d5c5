// authtoken выпускает значение cookie authData тем же ключом, что и система входа.
// Нужен для локальной проверки: curl --cookie "authData=$(authtoken -user alice ...)".
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/energydash/internal/credential"
)

func main() {
	user := flag.String("user", "", "username")
	device := flag.String("device", "", "device name")
	ip := flag.String("ip", "", "ip address")
	denied := flag.Bool("denied", false, `write auth:"false"`)
	key := flag.String("key", os.Getenv("CREDENTIAL_KEY"), "shared key, 32 bytes or 64 hex chars (default $CREDENTIAL_KEY)")
	flag.Parse()

	if *user == "" || *device == "" || *ip == "" {
		fmt.Fprintln(os.Stderr, "authtoken: -user, -device and -ip are required")
		flag.Usage()
		os.Exit(2)
	}
	k, err := credential.ParseKey(*key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "authtoken: %v\n", err)
		os.Exit(1)
	}
	c, err := credential.NewCipher(k)
	if err != nil {
		fmt.Fprintf(os.Stderr, "authtoken: %v\n", err)
		os.Exit(1)
	}
	tok, err := c.Seal(credential.Claim{Username: *user, DeviceName: *device, IPAddress: *ip, Auth: !*denied})
	if err != nil {
		fmt.Fprintf(os.Stderr, "authtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
