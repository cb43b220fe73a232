// ABOUTME: Command-line client for a running todo-gateway
// ABOUTME: Lists, adds, completes, renames, and removes to-do items over HTTP

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/todo-gateway/internal/client"
	"github.com/2389/todo-gateway/internal/store"
)

func printUsage() {
	yellow := color.New(color.FgYellow)

	fmt.Println("Usage: todo <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  list                    List items, most recently updated first")
	fmt.Println("  add <title...>          Create an item")
	fmt.Println("  show <id>               Show one item")
	fmt.Println("  done <id>               Mark an item completed")
	fmt.Println("  undo <id>               Mark an item not completed")
	fmt.Println("  rename <id> <title...>  Change an item's title")
	fmt.Println("  rm <id>                 Delete an item")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  TODO_URL                Gateway address (default: localhost:8080)")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := client.New(getEnv("TODO_URL", "localhost:8080"))

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	if err := run(ctx, c, os.Stdout, cmd, os.Args[2:]); err != nil {
		if errors.Is(err, errUnknownCommand) {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
			printUsage()
			os.Exit(1)
		}
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

var errUnknownCommand = errors.New("unknown command")

func run(ctx context.Context, c *client.Client, w io.Writer, cmd string, args []string) error {
	switch cmd {
	case "list", "ls":
		return cmdList(ctx, c, w)
	case "add":
		return cmdAdd(ctx, c, w, args)
	case "show":
		return cmdShow(ctx, c, w, args)
	case "done":
		return cmdSetCompleted(ctx, c, w, args, true)
	case "undo":
		return cmdSetCompleted(ctx, c, w, args, false)
	case "rename":
		return cmdRename(ctx, c, w, args)
	case "rm":
		return cmdRemove(ctx, c, w, args)
	default:
		return errUnknownCommand
	}
}

func cmdList(ctx context.Context, c *client.Client, out io.Writer) error {
	items, err := c.List(ctx)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No items.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tDONE\tTITLE\tUPDATED")
	fmt.Fprintln(w, "  --\t----\t-----\t-------")
	for _, item := range items {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", item.ID, checkbox(item.Completed), truncate(item.Title, 48), formatStamp(item.UpdatedAt))
	}
	return w.Flush()
}

func cmdAdd(ctx context.Context, c *client.Client, out io.Writer, args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		return errors.New("usage: todo add <title...>")
	}

	item, err := c.Create(ctx, title)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", color.GreenString("Created"), item.ID)
	return nil
}

func cmdShow(ctx context.Context, c *client.Client, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: todo show <id>")
	}

	item, err := c.Get(ctx, args[0])
	if err != nil {
		return err
	}
	printItem(out, item)
	return nil
}

func cmdSetCompleted(ctx context.Context, c *client.Client, out io.Writer, args []string, completed bool) error {
	if len(args) != 1 {
		return errors.New("usage: todo done|undo <id>")
	}

	item, err := c.Update(ctx, args[0], client.Update{Completed: &completed})
	if err != nil {
		return err
	}
	printItem(out, item)
	return nil
}

func cmdRename(ctx context.Context, c *client.Client, out io.Writer, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: todo rename <id> <title...>")
	}

	title := strings.Join(args[1:], " ")
	item, err := c.Update(ctx, args[0], client.Update{Title: &title})
	if err != nil {
		return err
	}
	printItem(out, item)
	return nil
}

func cmdRemove(ctx context.Context, c *client.Client, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: todo rm <id>")
	}

	if err := c.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", color.YellowString("Deleted"), args[0])
	return nil
}

func printItem(out io.Writer, item *client.Item) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  ID:\t%s\n", item.ID)
	fmt.Fprintf(w, "  Title:\t%s\n", item.Title)
	fmt.Fprintf(w, "  Completed:\t%s\n", checkbox(item.Completed))
	fmt.Fprintf(w, "  Created:\t%s\n", formatStamp(item.CreatedAt))
	fmt.Fprintf(w, "  Updated:\t%s\n", formatStamp(item.UpdatedAt))
	_ = w.Flush()
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func formatStamp(s string) string {
	if t, err := store.ParseTimestamp(s); err == nil {
		return t.Local().Format("Jan 02 15:04")
	}
	return s
}

// truncate shortens s to maxLen runes, never splitting a character.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
