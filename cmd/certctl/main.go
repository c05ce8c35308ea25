// certctl drives the certificate service HTTP API from the command line.
// It reads the target from CERTIA_URL and the bearer token from
// CERTIA_TOKEN; login prints a token to export.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const usage = `usage:
  certctl login --email <email> --password <password>
  certctl submission show <submission_id>
  certctl submission list [--status <status>]
  certctl submission review <submission_id>
  certctl submission approve <submission_id> [--notes <text>]
  certctl submission reject <submission_id> --notes <text>
  certctl submission sign <submission_id>
  certctl submission reset <submission_id>
  certctl stats`

func main() {
	if len(os.Args) < 2 {
		fail(usage)
	}
	c := newClient()
	switch os.Args[1] {
	case "login":
		c.runLogin(os.Args[2:])
	case "submission":
		c.runSubmission(os.Args[2:])
	case "stats":
		c.get("/admin/stats")
	default:
		fail(usage)
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient() *client {
	base := strings.TrimRight(os.Getenv("CERTIA_URL"), "/")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &client{
		baseURL: base,
		token:   os.Getenv("CERTIA_TOKEN"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *client) runLogin(args []string) {
	var email, password string
	parseFlags(args, map[string]*string{"--email": &email, "--password": &password})
	if email == "" || password == "" {
		fail("both --email and --password are required")
	}
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	c.do("POST", "/auth/login", body)
}

func (c *client) runSubmission(args []string) {
	if len(args) < 1 {
		fail(usage)
	}
	verb := args[0]
	rest := args[1:]

	if verb == "list" {
		var status string
		parseFlags(rest, map[string]*string{"--status": &status})
		path := "/submissions"
		if status != "" {
			path += "?status=" + status
		}
		c.get(path)
		return
	}

	if len(rest) < 1 {
		fail(usage)
	}
	id := rest[0]
	var notes string
	parseFlags(rest[1:], map[string]*string{"--notes": &notes})

	switch verb {
	case "show":
		c.get("/submissions/" + id)
	case "review":
		c.do("POST", "/submissions/"+id+"/review", nil)
	case "approve":
		c.do("POST", "/submissions/"+id+"/approve", notesBody(notes))
	case "reject":
		if notes == "" {
			fail("reject requires --notes")
		}
		c.do("POST", "/submissions/"+id+"/reject", notesBody(notes))
	case "sign":
		c.do("POST", "/submissions/"+id+"/sign", nil)
	case "reset":
		c.do("POST", "/submissions/"+id+"/reset-error", nil)
	default:
		fail(usage)
	}
}

func notesBody(notes string) []byte {
	if notes == "" {
		return nil
	}
	body, _ := json.Marshal(map[string]string{"notes": notes})
	return body
}

// parseFlags fills the given targets from "--key value" pairs; unknown flags
// are an error.
func parseFlags(args []string, targets map[string]*string) {
	for i := 0; i < len(args); i++ {
		dst, ok := targets[args[i]]
		if !ok {
			fail("unknown flag " + args[i])
		}
		if i+1 >= len(args) {
			fail(args[i] + " needs a value")
		}
		i++
		*dst = args[i]
	}
}

func (c *client) get(path string) { c.do("GET", path, nil) }

func (c *client) do(method, path string, body []byte) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		fail(err.Error())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		os.Stdout.Write(raw)
	}
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}
