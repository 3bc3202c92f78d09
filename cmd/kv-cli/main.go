package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/heysubinoy/keyval/pkg/client"
)

const defaultAddr = "127.0.0.1:9090"

var (
	errUsage    = errors.New("usage")
	errNotFound = errors.New("key not found")
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	c, err := client.Dial(grpcAddr(os.Getenv("KEYVAL_GRPC_ADDR")))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = run(ctx, c, os.Args[1:], os.Stdout)
	cancel()
	c.Close()

	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, errNotFound):
		os.Exit(1)
	default:
		log.Fatal(err)
	}
}

// grpcAddr returns the server address, defaulting the whole address or
// just the host.
func grpcAddr(addr string) string {
	if addr == "" {
		return defaultAddr
	}
	if addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// run executes one command against c, writing its output to out.
func run(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return errUsage
	}

	switch command := args[0]; command {
	case "get":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: kv-cli get <key>")
			return errUsage
		}
		return handleGet(ctx, c, args[1], out)

	case "set":
		if len(args) < 3 {
			fmt.Fprintln(out, "Usage: kv-cli set <key> <value>")
			return errUsage
		}
		return handleSet(ctx, c, args[1], args[2], out)

	case "stats":
		return handleStats(ctx, c, out)

	default:
		fmt.Fprintf(out, "Unknown command: %s\n", command)
		printUsage(out)
		return errUsage
	}
}

func handleGet(ctx context.Context, c *client.Client, key string, out io.Writer) error {
	value, found, err := c.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}

	if !found {
		fmt.Fprintf(out, "Key '%s' not found\n", key)
		return errNotFound
	}
	fmt.Fprintln(out, value)
	return nil
}

func handleSet(ctx context.Context, c *client.Client, key, value string, out io.Writer) error {
	if err := c.Set(ctx, key, value); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	fmt.Fprintf(out, "Set '%s'\n", key)
	return nil
}

func handleStats(ctx context.Context, c *client.Client, out io.Writer) error {
	stats, err := c.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "%-14s %v\n", name, stats[name])
	}
	return nil
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  kv-cli get <key>")
	fmt.Fprintln(out, "  kv-cli set <key> <value>")
	fmt.Fprintln(out, "  kv-cli stats")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Environment variables:")
	fmt.Fprintln(out, "  KEYVAL_GRPC_ADDR - keyval gRPC address (default: 127.0.0.1:9090)")
}
