// Command widget is a terminal front end for the site chat assistant.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/zyora-ai/site/internal/chatclient"
	"github.com/zyora-ai/site/internal/config"
	"github.com/zyora-ai/site/internal/widget"
	"github.com/zyora-ai/site/pkg/logger"
)

func main() {
	cfg := config.LoadWidget()

	log, err := logger.NewStderr(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := chatclient.New(cfg.APIURL, cfg.APIKey)
	surface := newTerminalSurface(os.Stdout)

	w := widget.New(client, client, surface, widget.Options{
		FallbackEmail:     cfg.FallbackEmail,
		ReplyDelay:        cfg.ReplyDelay,
		BookingStartDelay: cfg.BookingStartDelay,
		NavigateDelay:     cfg.NavigateDelay,
		Logger:            log,
	})
	defer w.Close()

	if err := run(ctx, w, surface); err != nil {
		fmt.Fprintf(os.Stderr, "widget: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w *widget.Widget, surface *terminalSurface) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		surface.endLine()
		if w.State().QuickActions {
			fmt.Println(renderQuickActions(widget.QuickActions))
		}
		fmt.Print("> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case l, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			line = strings.TrimSpace(l)
		}

		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case strings.HasPrefix(line, "/"):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "/"))
			if err != nil || n < 1 || n > len(widget.QuickActions) {
				fmt.Println("commands: /1-/3 quick actions, /quit")
				continue
			}
			qa := widget.QuickActions[n-1]
			fmt.Println(qa.Prompt)
			w.HandleQuickAction(ctx, qa.Label)
		case line == "":
		default:
			if !w.HandleSubmit(ctx, line) {
				fmt.Println(indicatorStyle.Render("still working on the last message"))
			}
		}
	}
}
