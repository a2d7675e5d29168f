package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/sagility/billingctl/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCommand = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	RunE:  runLogin,
}

var registerCommand = &cobra.Command{
	Use:   "register",
	Short: "Create an account (and log in, when the backend allows it)",
	RunE:  runRegister,
}

var logoutCommand = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session",
	RunE:  runLogout,
}

var whoamiCommand = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE:  runWhoami,
}

var createTestUserCommand = &cobra.Command{
	Use:   "create-test-user",
	Short: "Ask the backend to provision a throwaway account",
	RunE:  runCreateTestUser,
}

var (
	authEmail    string
	authPassword string
)

func init() {
	for _, cmd := range []*cobra.Command{loginCommand, registerCommand} {
		cmd.Flags().StringVar(&authEmail, "email", "", "Account email")
		cmd.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
	}
	rootCmd.AddCommand(loginCommand, registerCommand, logoutCommand, whoamiCommand, createTestUserCommand)
}

// promptPassword reads the password without echo when it was not passed as a flag.
func promptPassword() (string, error) {
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func runLogin(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if authEmail == "" {
		return fmt.Errorf("please provide --email")
	}
	password := authPassword
	if password == "" {
		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	res := a.manager.Login(context.Background(), types.LoginRequest{Email: authEmail, Password: password})
	if !res.Success {
		return fmt.Errorf("%s", res.Error)
	}
	if u := a.manager.User(); u != nil {
		pterm.Success.Printfln("Logged in as %s", u.Email)
	} else {
		pterm.Success.Printfln("Logged in as %s", authEmail)
	}
	if exp := a.manager.ExpiresAt(); exp != nil {
		pterm.Printfln("Session expires at %s", formatTime(*exp))
	}
	return nil
}

func runRegister(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if authEmail == "" {
		return fmt.Errorf("please provide --email")
	}
	password := authPassword
	if password == "" {
		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	res := a.manager.Register(context.Background(), types.RegisterRequest{Email: authEmail, Password: password})
	if !res.Success {
		return fmt.Errorf("%s", res.Error)
	}
	if a.manager.Authenticated() {
		pterm.Success.Printfln("Account created, logged in as %s", authEmail)
	} else {
		pterm.Success.Printfln("%s", res.Message)
	}
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	a.manager.Logout()
	pterm.Success.Println("Logged out")
	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if !a.manager.Authenticated() {
		pterm.Println("Not logged in")
		return nil
	}
	if u := a.manager.User(); u != nil {
		pterm.Printfln("Logged in as %s (id %s)", u.Email, u.ID)
	} else {
		pterm.Println("Logged in (no cached user profile)")
	}
	if exp := a.manager.ExpiresAt(); exp != nil {
		pterm.Printfln("Session expires at %s", formatTime(*exp))
	}
	return nil
}

func runCreateTestUser(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	resp, err := a.client.CreateTestUser(context.Background())
	if err != nil {
		return err
	}
	pterm.Success.Println(resp.Message)
	if resp.Email != "" {
		pterm.Printfln("Email:    %s", resp.Email)
		pterm.Printfln("Password: %s", resp.Password)
	}
	return nil
}
