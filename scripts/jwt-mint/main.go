// Command jwt-mint prints an HS256 bearer token for local testing.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	secret := flag.String("secret", os.Getenv("TALAWA_AUTH_JWT_SECRET"), "HS256 signing secret")
	issuer := flag.String("issuer", "", "iss claim (optional)")
	audience := flag.String("audience", "", "aud claim, comma-separated (optional)")
	subject := flag.String("subject", "", "user id placed in the sub claim")
	claim := flag.String("claim", "sub", "claim that carries the user id")
	expires := flag.Duration("expires", time.Hour, "token lifetime (e.g. 1h)")
	flag.Parse()

	token, err := mint(mintOptions{
		secret:   []byte(*secret),
		issuer:   *issuer,
		audience: splitList(*audience),
		subject:  *subject,
		claim:    *claim,
		expires:  *expires,
		now:      time.Now(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}

type mintOptions struct {
	secret   []byte
	issuer   string
	audience []string
	subject  string
	claim    string
	expires  time.Duration
	now      time.Time
}

func mint(opts mintOptions) (string, error) {
	if len(opts.secret) == 0 {
		return "", errors.New("a signing secret is required (-secret or TALAWA_AUTH_JWT_SECRET)")
	}
	if opts.subject == "" {
		return "", errors.New("-subject is required")
	}
	if opts.claim == "" {
		opts.claim = "sub"
	}

	claims := jwt.MapClaims{
		opts.claim: opts.subject,
		"iat":      opts.now.Unix(),
		"nbf":      opts.now.Add(-time.Minute).Unix(),
		"exp":      opts.now.Add(opts.expires).Unix(),
	}
	if opts.issuer != "" {
		claims["iss"] = opts.issuer
	}
	if len(opts.audience) > 0 {
		claims["aud"] = opts.audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(opts.secret)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
