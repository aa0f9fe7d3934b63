package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dimiro1/banner"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/va6996/aifns/agents"
	"github.com/va6996/aifns/bootstrap"
	"github.com/va6996/aifns/config"
	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/log"
)

const version = "dev"

func printBanner() {
	tpl := "{{ .Title \"aifns\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

func main() {
	// Load .env if present
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf(ctx, "Failed to load config: %v", err)
	}
	log.Init(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		log.Fatalf(ctx, "Invalid config: %v", err)
	}

	app, err := bootstrap.Setup(ctx, cfg)
	if err != nil {
		log.Fatalf(ctx, "Setup failed: %v", err)
	}
	defer app.Close()

	printBanner()
	fmt.Printf("%d tools available: %s\n", app.Registry.Len(), strings.Join(app.Registry.Names(), ", "))
	fmt.Println("Ask a question, or type 'exit' to quit.")

	r := newREPL(app.Conversation, os.Stdin, os.Stdout)
	if err := r.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nExiting...")
}

// repl reads questions line by line and carries the transcript across them
type repl struct {
	conv       agents.Conversation
	in         io.Reader
	out        io.Writer
	transcript []llm.Message

	prompt  *color.Color
	answer  *color.Color
	warning *color.Color
	failure *color.Color
}

func newREPL(conv agents.Conversation, in io.Reader, out io.Writer) *repl {
	return &repl{
		conv:    conv,
		in:      in,
		out:     out,
		prompt:  color.New(color.FgHiBlue, color.Bold),
		answer:  color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
	}
}

func (r *repl) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scanner := bufio.NewScanner(r.in)

	// stdin reader goroutine -> lines into channel
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		r.prompt.Fprint(r.out, "You: ")

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
			if !ok {
				return scanner.Err()
			}
		}

		question := strings.TrimSpace(line)
		switch {
		case question == "":
			r.warning.Fprintln(r.out, "Please enter a question.")
			continue
		case strings.EqualFold(question, "exit"):
			return nil
		}

		r.ask(ctx, question)
	}
}

// ask runs one question. On failure the transcript up to the failure is
// kept so the next question continues from there.
func (r *repl) ask(ctx context.Context, question string) {
	messages := append(append([]llm.Message(nil), r.transcript...), llm.UserMessage(question))

	res, err := r.conv.Run(ctx, messages)
	if res != nil {
		r.transcript = res.Transcript
	}
	if err != nil {
		r.failure.Fprintf(r.out, "Error: %v\n", err)
		return
	}

	r.answer.Fprintf(r.out, "Assistant: %s\n", res.Completion.Message.Text())
}
