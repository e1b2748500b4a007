// chatctl is a terminal client for the chat REST surface. It reads the
// server address and access token from the environment, so a typical
// session is: signup (or login), export the printed token, then users /
// history / send.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	ServerAddress string        `env:"PAIRCHAT_ADDR,default=http://localhost:8080"`
	AccessToken   string        `env:"PAIRCHAT_TOKEN"`
	Timeout       time.Duration `env:"PAIRCHAT_TIMEOUT,default=10s"`
}

func main() {
	code, err := run()
	if err != nil {
		color.Red.Printf("chatctl: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	if len(os.Args) < 2 {
		usage()
		return exitConfig, nil
	}

	client := &client{
		base:  config.ServerAddress,
		token: config.AccessToken,
		http:  &http.Client{Timeout: config.Timeout},
	}

	var err error
	switch os.Args[1] {
	case "signup":
		err = cmdAuth(client, "/api/signup", os.Args[2:])
	case "login":
		err = cmdAuth(client, "/api/login", os.Args[2:])
	case "users":
		err = cmdUsers(client)
	case "history":
		err = cmdHistory(client, os.Args[2:])
	case "send":
		err = cmdSend(client, os.Args[2:])
	default:
		usage()
		return exitConfig, nil
	}
	if err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: chatctl <command> [flags]

commands:
  signup  -u <username> -p <password>   create an account, print a token
  login   -u <username> -p <password>   print a fresh token
  users                                 list other accounts
  history -peer <id>                    print a conversation
  send    -to <id> -m <text>            send one message`)
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) do(method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("server replied %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type userPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type messagePayload struct {
	ID        string `json:"id"`
	Sender    int64  `json:"sender"`
	Recipient int64  `json:"recipient"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func cmdAuth(c *client, path string, args []string) error {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	_ = fs.Parse(args)

	var resp struct {
		User   userPayload `json:"user"`
		Access string      `json:"access"`
	}
	payload := map[string]string{"username": *username, "password": *password}
	if err := c.do(http.MethodPost, path, payload, &resp); err != nil {
		return err
	}

	color.Green.Printf("authenticated as %s (id %d)\n", resp.User.Username, resp.User.ID)
	fmt.Printf("export PAIRCHAT_TOKEN=%s\n", resp.Access)
	return nil
}

func cmdUsers(c *client) error {
	var users []userPayload
	if err := c.do(http.MethodGet, "/api/users", nil, &users); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Username"})
	for _, u := range users {
		table.Append([]string{fmt.Sprintf("%d", u.ID), u.Username})
	}
	table.Render()
	return nil
}

func cmdHistory(c *client, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	peer := fs.Int64("peer", 0, "peer user id")
	_ = fs.Parse(args)

	var messages []messagePayload
	path := fmt.Sprintf("/api/messages/%d", *peer)
	if err := c.do(http.MethodGet, path, nil, &messages); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"When", "From", "Content"})
	for _, m := range messages {
		table.Append([]string{m.Timestamp, fmt.Sprintf("%d", m.Sender), m.Content})
	}
	table.Render()
	return nil
}

func cmdSend(c *client, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	to := fs.Int64("to", 0, "recipient user id")
	text := fs.String("m", "", "message text")
	_ = fs.Parse(args)

	payload := map[string]any{"recipient_id": *to, "content": *text}
	var message messagePayload
	if err := c.do(http.MethodPost, "/api/messages", payload, &message); err != nil {
		return err
	}

	color.Green.Printf("sent %s at %s\n", message.ID, message.Timestamp)
	return nil
}
