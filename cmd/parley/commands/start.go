package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"parley/internal/domain"
	"parley/internal/term"
)

// startCmd opens an encrypted conversation: dial the relay, run the
// handshake, then shuttle lines between stdin and the session until the
// user types "exit" or the peer goes away.
func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <user> <peer>",
		Short: "Start an encrypted conversation with a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, peer := domain.Identity(args[0]), domain.Identity(args[1])

			if appCtx.Cfg.RelayURL == "" {
				addr, err := promptRelay()
				if err != nil {
					return err
				}
				appCtx.Cfg.RelayURL = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			display := term.NewDisplay(os.Stdout)
			sess, err := appCtx.Connect(ctx, local, peer, display)
			if err != nil {
				return err
			}

			lines := term.Lines(os.Stdin)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case line, ok := <-lines:
						if !ok || strings.EqualFold(strings.TrimSpace(line), "exit") {
							cancel()
							return
						}
						if strings.TrimSpace(line) == "" {
							display.Prompt()
							continue
						}
						if err := sess.Send(ctx, line); err != nil {
							display.Alert(fmt.Sprintf("could not send: %v", err))
							return
						}
						display.Prompt()
					}
				}
			}()

			display.Prompt()
			if err := sess.Run(ctx); err != nil {
				return err
			}
			fmt.Println()
			fmt.Println("session closed")
			return nil
		},
	}
}

func promptRelay() (string, error) {
	fmt.Print("Relay address: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading relay address: %w", err)
	}
	addr := strings.TrimSpace(line)
	if addr == "" {
		return "", fmt.Errorf("relay address is required")
	}
	return addr, nil
}
