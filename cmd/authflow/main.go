// Command authflow walks the identity verification flow from a terminal.
// It drives the same step machine the storefront uses, which makes it a
// handy smoke test against a running identity API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/craftkart/identity/internal/flow"
	"github.com/craftkart/identity/internal/models"
)

func main() {
	var (
		baseURL    = flag.String("base-url", "http://localhost:8080", "identity API base URL")
		actorName  = flag.String("actor", "user", "endpoint set to use: user, admin or super-admin")
		modeName   = flag.String("mode", "login", "flow mode: login, signup or verify")
		chanName   = flag.String("channel", "phone", "code delivery channel: phone or email")
		identifier = flag.String("identifier", "", "pre-supplied identifier, skips the first step")
	)
	flag.Parse()

	mode, err := models.ParseMode(*modeName)
	if err != nil {
		fatal(err)
	}
	channel, err := models.ParseChannel(*chanName)
	if err != nil {
		fatal(err)
	}
	actor := models.ActorKind(*actorName)
	switch actor {
	case models.ActorUser, models.ActorAdmin, models.ActorSuperAdmin:
	default:
		fatal(fmt.Errorf("unknown actor %q", *actorName))
	}

	client, err := flow.NewClient(*baseURL, actor)
	if err != nil {
		fatal(err)
	}
	store := flow.NewSessionStore()

	opts := []flow.SessionOption{
		flow.WithCompletion(func(identifier, code string) {
			fmt.Printf("verified %s with code %s\n", identifier, code)
		}),
	}
	if *identifier != "" {
		opts = append(opts, flow.WithInitialIdentifier(*identifier))
	}

	session, err := flow.NewSession(client, store, mode, channel, opts...)
	if err != nil {
		fatal(err)
	}
	defer session.Close()

	ctx := context.Background()
	in := bufio.NewReader(os.Stdin)

	if *identifier != "" {
		if err := session.RequestCodeForInitial(ctx); err != nil {
			fatal(err)
		}
		fmt.Printf("code sent to %s\n", session.Identifier())
	}

	for !session.Done() {
		switch session.Step() {
		case flow.StepCollectIdentifier:
			raw := prompt(in, fmt.Sprintf("%s: ", channel))
			if err := session.SubmitIdentifier(ctx, raw); err != nil {
				report(session, err)
				continue
			}
			fmt.Printf("code sent to %s\n", session.Identifier())

		case flow.StepCollectCode:
			code := prompt(in, "code (or 'back'): ")
			if code == "back" && session.CanGoBack() {
				if err := session.Back(); err != nil {
					report(session, err)
				}
				continue
			}
			if err := session.SubmitCode(ctx, code); err != nil {
				if errors.Is(err, models.ErrCodeExpired) {
					fmt.Println("code expired, request a new one")
					if session.CanGoBack() {
						if err := session.Back(); err != nil {
							report(session, err)
						}
					}
					continue
				}
				report(session, err)
				continue
			}

		case flow.StepCollectProfile:
			profile := models.Profile{
				Name:   prompt(in, "name: "),
				Gender: prompt(in, "gender (male/female/other, blank to skip): "),
			}
			fmt.Print("password (blank to skip): ")
			pw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				fatal(err)
			}
			profile.Password = string(pw)
			if err := session.SubmitProfile(ctx, profile); err != nil {
				report(session, err)
				continue
			}
		}
	}

	if user := session.User(); user != nil {
		fmt.Printf("authenticated as %s (%s), landing at %s\n", user.Name, user.Role, session.Landing())
	}
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func report(s *flow.Session, err error) {
	if msg := s.ErrorMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		s.ClearError()
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "authflow:", err)
	os.Exit(1)
}
