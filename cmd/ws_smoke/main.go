package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ws_smoke registers a throwaway user against a running server, opens the
// live feed and submits an image, then waits for the post_created event.
func main() {
	base := flag.String("addr", "127.0.0.1:8080", "server host:port")
	flag.Parse()

	name := fmt.Sprintf("smoke%d", time.Now().UnixNano()%1_000_000)
	email := name + "@example.com"

	post(*base, "/api/v1/auth/register", "", map[string]string{
		"username": name, "email": email, "password": "smoke-password",
	}, nil)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	post(*base, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "smoke-password"}, &login)

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws/feed?token=%s", *base, login.AccessToken), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var analyzed map[string]any
	post(*base, "/api/v1/posts/analyze-json", login.AccessToken, map[string]string{
		"image_data": base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nsmoke")),
		"mime_type":  "image/png",
	}, &analyzed)
	log.Printf("analyze: score=%v published=%v", analyzed["scam_score"], analyzed["published"])

	if analyzed["published"] != true {
		log.Println("score below threshold, nothing to broadcast")
		return
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			continue
		}
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(msg, &env)
		log.Printf("got: %s", env.Type)
		if env.Type == "post_created" {
			log.Println("smoke test finished")
			return
		}
	}
	log.Fatal("no post_created event received")
}

func post(base, path, token string, body any, out any) {
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, "http://"+base+path, bytes.NewReader(b))
	if err != nil {
		log.Fatalf("%s: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s: %v", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		log.Fatalf("%s: status %d", path, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s: decode: %v", path, err)
		}
	}
}
