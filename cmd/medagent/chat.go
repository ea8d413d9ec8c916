package main

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, _ := loadContainer(cmd)
		defer container.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if err := container.ConsumerService.Consume(ctx); err != nil {
			return err
		}

		prompt := color.New(color.FgCyan, color.Bold)
		bot := color.New(color.FgGreen)
		meta := color.New(color.FgHiBlack)
		fail := color.New(color.FgRed)

		meta.Printf("session %s (type /exit to quit)\n", sessionID)
		scanner := bufio.NewScanner(os.Stdin)
		for {
			prompt.Print("you> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			text := strings.TrimSpace(scanner.Text())
			if text == "/exit" || text == "/quit" {
				return nil
			}

			start := time.Now()
			reply, err := container.Agent.HandleTurn(ctx, sessionID, text)
			if err != nil {
				fail.Printf("error: %v\n", err)
				continue
			}
			bot.Println(reply)
			meta.Printf("(%v)\n\n", time.Since(start).Round(time.Millisecond))
		}
	},
}

func init() {
	chatCmd.Flags().String("session", "", "Resume an existing session id")
	rootCmd.AddCommand(chatCmd)
}
