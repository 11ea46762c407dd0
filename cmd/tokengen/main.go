// Command tokengen prints a signed token the server's credential gate accepts.
//
//	tokengen --secret S --device box-1 --ttl 720h
//	tokengen --secret S --user alice --role operator
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	jwtutil "fleetpulse/backend/app/jwt"
	"fleetpulse/backend/app/models"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(2)
	}
}

func run(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("tokengen", pflag.ContinueOnError)
	secret := fs.String("secret", os.Getenv("FLEETPULSE_JWT_SECRET"), "HS256 signing secret (default $FLEETPULSE_JWT_SECRET)")
	issuer := fs.String("issuer", "fleetpulse", "issuer claim; must match jwt.issuer on the server")
	device := fs.String("device", "", "issue an agent token bound to this device id")
	org := fs.String("org", "", "organisation recorded in an agent token")
	user := fs.String("user", "", "issue an operator token for this username")
	role := fs.String("role", models.RoleOperator, "role for --user (admin or operator)")
	ttl := fs.Duration("ttl", 24*time.Hour, "validity; 0 means no expiry")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *secret == "" {
		return errors.New("--secret is required")
	}
	if (*device == "") == (*user == "") {
		return errors.New("exactly one of --device or --user is required")
	}
	if *user != "" && *role != models.RoleAdmin && *role != models.RoleOperator {
		return fmt.Errorf("unknown role %q", *role)
	}

	signer := &jwtutil.Signer{Secret: []byte(*secret), Issuer: *issuer}
	var token string
	var err error
	if *device != "" {
		token, err = signer.SignAgent(*device, *org, *ttl)
	} else {
		token, err = signer.SignUser(0, *user, *role, *ttl)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
