package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	isAdmin(ctx context.Context) bool
	activity()
	report(err error)

	Register(ctx context.Context) error
	Verify(ctx context.Context, args []string) error
	Resend(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
	Login(ctx context.Context) error
	Passwd(ctx context.Context) error
	Whoami(ctx context.Context) error
	Coupons(ctx context.Context, args []string) error
	Buy(ctx context.Context, args []string) error
	Upload(ctx context.Context) error
	Vault(ctx context.Context) error
	Wallet(ctx context.Context, args []string) error
	MyCoupons(ctx context.Context, args []string) error
	Referral(ctx context.Context) error
	Categories(ctx context.Context) error
	Admin(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the CuponCode CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Every non-empty line counts as user
// activity for the idle timeout. The loop exits on EOF or when the user
// types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help              show available commands
//	  - register          create an account
//	  - verify [code]     enter the emailed code
//	  - resend            send the code again
//	  - forgot            request a password reset code
//	  - reset             set a new password after verify
//	  - login             authenticate
//	  - exit | quit       leave the program
//
//	Logged in:
//	  - coupons [page]    browse the marketplace
//	  - buy <id>          buy a coupon from the last listing
//	  - upload            submit a coupon for review
//	  - vault             show purchased codes
//	  - wallet [page]     show the balance and transactions
//	  - mycoupons [status] list own uploads
//	  - referral          show the referral code and referred users
//	  - categories        list coupon categories
//	  - whoami            show the current account
//	  - passwd            change password
//	  - logout            log out
//
//	Admins additionally:
//	  - admin <sub> ...   stats, coupons, pending, approve, reject, users,
//	                      user, coins, transactions, category
//
// Errors returned by command handlers go to a.report, which renders them
// for the user; the loop itself never stops on a failed command.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cc %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		a.activity()

		switch cmd {
		case "help":
			switch {
			case a.isAdmin(ctx):
				printlnFn("Available commands: admin, coupons, buy, upload, vault, wallet, mycoupons, referral, categories, whoami, passwd, logout, exit")
				printlnFn("Admin subcommands:", adminUsage)
			case a.isLoggedIn(ctx):
				printlnFn("Available commands: coupons, buy, upload, vault, wallet, mycoupons, referral, categories, whoami, passwd, logout, exit")
			default:
				printlnFn("Available commands: register, verify, resend, forgot, reset, login, exit")
			}

		case "register":
			a.report(a.Register(ctx))

		case "verify":
			a.report(a.Verify(ctx, args))

		case "resend":
			a.report(a.Resend(ctx))

		case "forgot":
			a.report(a.Forgot(ctx))

		case "reset":
			a.report(a.Reset(ctx))

		case "login":
			a.report(a.Login(ctx))

		case "passwd":
			a.report(a.Passwd(ctx))

		case "whoami":
			a.report(a.Whoami(ctx))

		case "coupons", "ls":
			a.report(a.Coupons(ctx, args))

		case "buy":
			a.report(a.Buy(ctx, args))

		case "upload":
			a.report(a.Upload(ctx))

		case "vault":
			a.report(a.Vault(ctx))

		case "wallet":
			a.report(a.Wallet(ctx, args))

		case "mycoupons":
			a.report(a.MyCoupons(ctx, args))

		case "referral":
			a.report(a.Referral(ctx))

		case "categories":
			a.report(a.Categories(ctx))

		case "admin":
			a.report(a.Admin(ctx, args))

		case "logout":
			a.report(a.Logout(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
