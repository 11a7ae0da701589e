package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/atinyakov/GophNotes/internal/client"
	"github.com/atinyakov/GophNotes/internal/models"
	"golang.org/x/term"
)

var (
	version   string
	buildDate string
)

// Terminal seams, replaced in tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

const helpText = "Available commands: help, me, add, list, get <id>, edit <id>, delete <id>, logout, exit"

// shell holds the state of one interactive session.
type shell struct {
	api         *client.Client
	in          io.Reader
	out         io.Writer
	sessionPath string
}

// repl runs the interactive shell loop until exit or end of input.
func (s *shell) repl(ctx context.Context) {
	s.in = client.NewLineReader(s.in)
	for {
		line := client.ReadLine(s.in, s.out, "gophnotes> ")
		args := strings.Fields(line)
		if len(args) == 0 {
			if line == "" && s.eof() {
				return
			}
			continue
		}
		if !s.exec(ctx, args) {
			return
		}
	}
}

// eof reports whether the input is exhausted.
func (s *shell) eof() bool {
	_, err := client.NewLineReader(s.in).Peek(1)
	return err != nil
}

// exec runs one command and reports whether the shell should keep going.
func (s *shell) exec(ctx context.Context, args []string) bool {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "me":
		u, err := s.api.Me(ctx)
		if err != nil {
			s.fail(err)
			break
		}
		printJSON(s.out, u)
	case "add":
		n, err := s.api.CreateNote(ctx, client.PromptNote(s.in, s.out))
		if err != nil {
			s.fail(err)
			break
		}
		fmt.Fprintf(s.out, "Note created: %s\n", n.ID)
	case "list":
		notes, err := s.api.ListNotes(ctx)
		if err != nil {
			s.fail(err)
			break
		}
		if len(notes) == 0 {
			fmt.Fprintln(s.out, "No notes")
		}
		for _, n := range notes {
			printSummary(s.out, n)
		}
	case "get":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: get <id>")
			break
		}
		n, err := s.api.GetNote(ctx, args[1])
		if err != nil {
			s.fail(err)
			break
		}
		printJSON(s.out, n)
	case "edit":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: edit <id>")
			break
		}
		if _, err := s.api.GetNote(ctx, args[1]); err != nil {
			s.fail(err)
			break
		}
		if _, err := s.api.UpdateNote(ctx, args[1], client.PromptEdit(s.in, s.out)); err != nil {
			s.fail(err)
			break
		}
		fmt.Fprintln(s.out, "Note updated")
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: delete <id>")
			break
		}
		if err := s.api.DeleteNote(ctx, args[1]); err != nil {
			s.fail(err)
			break
		}
		fmt.Fprintln(s.out, "Note deleted")
	case "logout":
		if err := client.ClearSession(s.sessionPath); err != nil {
			s.fail(err)
		}
		s.api.SetToken("")
		fmt.Fprintln(s.out, "Logged out")
		return false
	case "exit":
		fmt.Fprintln(s.out, "Bye")
		return false
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return true
}

func (s *shell) fail(err error) {
	fmt.Fprintf(s.out, "Error: %v\n", err)
}

func printSummary(out io.Writer, n models.Note) {
	fmt.Fprintf(out, "%s  %s  %s\n", n.ID, n.UpdatedAt.Local().Format("2006-01-02 15:04"), n.Title)
}

func printJSON(out io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(out, string(b))
}

// promptPassword reads a password without echo when fd is a terminal,
// and falls back to a plain line read from in otherwise.
func promptPassword(in io.Reader, out io.Writer, fd int) (string, error) {
	if !isTerminal(fd) {
		return client.ReadLine(in, out, "Password: "), nil
	}
	fmt.Fprint(out, "Password: ")
	pass, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pass)), nil
}

// authenticate registers or logs in and persists the resulting session.
func authenticate(ctx context.Context, api *client.Client, in io.Reader, out io.Writer, cmd, email, name, sessionPath string) error {
	if email == "" {
		return errors.New("please provide -email")
	}
	if cmd == "register" && name == "" {
		return errors.New("please provide -name")
	}
	pass, err := promptPassword(in, out, int(os.Stdin.Fd()))
	if err != nil {
		return err
	}

	var res *client.AuthResult
	if cmd == "register" {
		res, err = api.Register(ctx, email, pass, name)
	} else {
		res, err = api.Login(ctx, email, pass)
	}
	if err != nil {
		return err
	}

	sess := &client.Session{Email: res.User.Email, Token: res.AccessToken}
	if err := sess.Save(sessionPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s\n", res.User.Email)
	return nil
}

// main parses command-line flags and dispatches to the register, login or shell commands.
func main() {
	var (
		cmd         string
		baseURL     string
		caFile      string
		sessionPath string
		email       string
		name        string
		showVer     bool
	)

	flag.StringVar(&cmd, "cmd", "", "command: register | login | shell")
	flag.StringVar(&baseURL, "url", "https://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert trusted for the server")
	flag.StringVar(&sessionPath, "session", "session.json", "path to the session file")
	flag.StringVar(&email, "email", "", "account email")
	flag.StringVar(&name, "name", "", "full name for registration")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("GophNotes Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	hc, err := client.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}
	api := client.New(baseURL, hc)
	in := client.NewLineReader(os.Stdin)
	ctx := context.Background()

	switch cmd {
	case "register", "login":
		if err := authenticate(ctx, api, in, os.Stdout, cmd, email, name, sessionPath); err != nil {
			log.Fatal(err)
		}
	case "shell":
		sess, err := client.LoadSession(sessionPath)
		if err != nil {
			log.Fatal(err)
		}
		if sess.Token == "" {
			log.Fatal("not signed in, run -cmd login first")
		}
		api.SetToken(sess.Token)
		sh := &shell{api: api, in: in, out: os.Stdout, sessionPath: sessionPath}
		fmt.Fprintf(sh.out, "Signed in as %s. %s\n", sess.Email, helpText)
		sh.repl(ctx)
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}
