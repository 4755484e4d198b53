package http

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/gorilla/websocket"
)

func TestWebSocketStreamsSubmissions(t *testing.T) {
	server, service := newTestServer(t)

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect stats snapshot first.
	_, payload := readNext(conn, t, "stats")
	if payload["id"] != "u1" || payload["score"] != float64(0) {
		t.Fatalf("unexpected stats payload %+v", payload)
	}

	// The subscription is registered after the upgrade; wait for it before submitting.
	waitForSubscriber(t, func() int { return service.Feed().Subscribers("u1") })

	if _, err := service.Submit(context.Background(), domain.SubmitRequest{
		UserID: "u1",
		QuizID: "quiz-1",
		Responses: []domain.AnswerSubmission{
			{QuestionID: "q1", SelectedOption: "4"},
			{QuestionID: "q2", SelectedOption: "9"},
		},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, payload = readNext(conn, t, "submission")
	if payload["quizId"] != "quiz-1" || payload["score"] != float64(20) || payload["totalScore"] != float64(20) {
		t.Fatalf("unexpected submission payload %+v", payload)
	}
	if payload["retake"] != false {
		t.Fatalf("expected first attempt, got %+v", payload)
	}

	if err := conn.WriteJSON(map[string]string{"type": "stats"}); err != nil {
		t.Fatalf("write stats request: %v", err)
	}
	_, payload = readNext(conn, t, "stats")
	if payload["score"] != float64(20) || payload["quizzesPlayed"] != float64(1) {
		t.Fatalf("unexpected refreshed stats %+v", payload)
	}

	if err := conn.WriteJSON(map[string]string{"type": "bogus"}); err != nil {
		t.Fatalf("write bogus: %v", err)
	}
	readNext(conn, t, "error")
}

func TestWebSocketIgnoresOtherUsers(t *testing.T) {
	server, service := newTestServer(t)

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?userId=u2"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(conn, t, "stats")
	waitForSubscriber(t, func() int { return service.Feed().Subscribers("u2") })

	if _, err := service.Submit(context.Background(), domain.SubmitRequest{UserID: "u1", QuizID: "quiz-2"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("expected no message for another user's submission, got %+v", msg)
	}
}

func TestWebSocketRejectsBadRequests(t *testing.T) {
	server, _ := newTestServer(t)
	base := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	if err == nil {
		t.Fatalf("expected dial failure without userId")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %+v", resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(base+"?userId=ghost", nil)
	if err == nil {
		t.Fatalf("expected dial failure for unknown user")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %+v", resp)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func waitForSubscriber(t *testing.T, count func() int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
