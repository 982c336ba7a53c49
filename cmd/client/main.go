// Command client is a small CLI for exercising the API through the
// session coordinator: it logs in, calls /v1/me, and keeps working across
// access-token expiry because the coordinator refreshes transparently.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/avetisk/civic-voice/internal/client"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "API base URL")
	username := flag.String("user", "", "username")
	password := flag.String("pass", "", "password")
	repeat := flag.Int("repeat", 1, "number of /v1/me calls to make")
	interval := flag.Duration("interval", time.Second, "delay between calls")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -user and -pass are required")
	}

	session := client.New(*base, nil, client.OnSessionEnd(func() {
		log.Printf("session ended by server; log in again")
	}))

	ctx := context.Background()
	if err := session.Login(ctx, *username, *password); err != nil {
		log.Fatalf("login: %v", err)
	}
	log.Printf("logged in as %s", *username)

	for i := 0; i < *repeat; i++ {
		if i > 0 {
			time.Sleep(*interval)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, *base+"/v1/me", nil)
		if err != nil {
			log.Fatalf("build request: %v", err)
		}
		resp, err := session.Execute(req)
		if err != nil {
			log.Fatalf("call %d: %v", i+1, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		fmt.Printf("[%d] %s %s\n", i+1, resp.Status, body)
	}

	session.Logout(ctx)
}
