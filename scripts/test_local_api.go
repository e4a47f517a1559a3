package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

// Smoke test for a running pdfchat REST server.
// Usage: PDFCHAT_API=http://localhost:3000/api PDFCHAT_TOKEN=... go run ./scripts

func baseURL() string {
	if v := os.Getenv("PDFCHAT_API"); v != "" {
		return v
	}
	return "http://localhost:3000/api"
}

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func sendRequest(method, url string, body interface{}) (*http.Response, map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL()+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := os.Getenv("PDFCHAT_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 3 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	if err == nil && len(raw) > 0 {
		err = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded, err
}

func step(title, method, url string, body interface{}) map[string]interface{} {
	color.Yellow("\n%s", title)
	resp, decoded, err := sendRequest(method, url, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 400 {
		color.Red("Status: %s", resp.Status)
	} else {
		color.Green("Status: %s", resp.Status)
	}
	return decoded
}

func main() {
	color.Cyan("Starting local API smoke test against %s\n", baseURL())

	docs := step("1. List documents", http.MethodGet, "/documents/v1?sort=name", nil)
	prettyPrint(docs["data"])

	var firstReady string
	if data, ok := docs["data"].(map[string]interface{}); ok {
		if list, ok := data["documents"].([]interface{}); ok {
			for _, item := range list {
				d, _ := item.(map[string]interface{})
				if d["status"] == "ready" {
					firstReady, _ = d["id"].(string)
					break
				}
			}
		}
	}

	if firstReady == "" {
		color.Red("No ready document; upload one with `pdfchat upload` first")
		os.Exit(1)
	}

	step("2. Select scope "+firstReady, http.MethodPut, "/chat/v1/scope", map[string]string{"scope_key": firstReady})

	reply := step("3. Ask a question", http.MethodPost, "/chat/v1/messages", map[string]string{"question": "Give me a one sentence summary."})
	if data, ok := reply["data"].(map[string]interface{}); ok {
		fmt.Printf("Reply: %s\n", data["content"])
	} else {
		prettyPrint(reply)
	}

	state := step("4. Chat state", http.MethodGet, "/chat/v1", nil)
	if data, ok := state["data"].(map[string]interface{}); ok {
		if msgs, ok := data["messages"].([]interface{}); ok {
			fmt.Printf("Messages in scope: %d\n", len(msgs))
		}
	}

	stats := step("5. History stats", http.MethodGet, "/chat/v1/history/stats", nil)
	prettyPrint(stats["data"])

	step("6. Back to all documents", http.MethodPut, "/chat/v1/scope", map[string]string{"scope_key": "all"})

	color.Cyan("\nDone")
}
