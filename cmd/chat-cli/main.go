// Package main is a terminal client for the shopping assistant. It submits
// turns, decodes the streamed reply incrementally, and re-renders after every
// decoded frame.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
	"github.com/aislecart-ai/shopping-assistant/internal/wire"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "API server base URL")
	token := flag.String("token", "", "bearer token for authenticated history")
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Minute}
	history := []model.ChatMessage{}

	fmt.Println("AI shopping assistant. Type a message, or /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" {
			return
		}

		history = append(history, model.ChatMessage{Role: string(model.RoleUser), Content: input})

		reply, err := streamTurn(client, *server, *token, history)
		if err != nil {
			// A severed stream is a failure: drop the partial text from
			// history and let the user retry.
			fmt.Fprintf(os.Stderr, "\nSorry, that didn't work (%v). Please try again.\n", err)
			history = history[:len(history)-1]
			continue
		}

		history = append(history, model.ChatMessage{Role: string(model.RoleAssistant), Content: reply})
	}
}

// streamTurn posts one turn and renders the reply as it decodes. The
// returned string is the complete reconstructed assistant message.
func streamTurn(client *http.Client, server, token string, history []model.ChatMessage) (string, error) {
	body, err := json.Marshal(model.ChatRequest{Messages: history})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, server+"/api/v1/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("server: %s", apiErr.Error)
		}
		return "", fmt.Errorf("server returned %s", resp.Status)
	}

	// One decoder per response; print only the text added by each chunk.
	dec := wire.NewDecoder()
	printed := 0
	chunk := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			if err := dec.Feed(chunk[:n]); err != nil {
				return "", err
			}
			text := dec.Text()
			fmt.Print(text[printed:])
			printed = len(text)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", readErr
		}
	}
	fmt.Println()

	if dec.Buffered() > 0 {
		return "", fmt.Errorf("stream ended mid-frame")
	}
	return dec.Text(), nil
}
