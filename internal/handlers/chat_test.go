package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnloop/coursechat/internal/database"
	"github.com/learnloop/coursechat/internal/handlers/dto"
	"github.com/learnloop/coursechat/internal/middleware"
	"github.com/learnloop/coursechat/internal/websocket"
	"github.com/learnloop/coursechat/pkg/auth"
)

// memoryBlacklist stands in for Redis in tests.
type memoryBlacklist struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{tokens: make(map[string]bool)}
}

func (b *memoryBlacklist) Revoke(_ context.Context, token string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = true
	return nil
}

func (b *memoryBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens[token], nil
}

type chatTestEnv struct {
	router    *gin.Engine
	db        *database.Database
	hub       *websocket.Hub
	jwt       *auth.JWTManager
	blacklist *memoryBlacklist
}

func newChatTestEnv(t *testing.T, d *database.Database) *chatTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)
	blacklist := newMemoryBlacklist()

	chatH := NewChatHandler(d, hub)
	messageH := NewMessageHandler(d, hub)
	wsH := NewWebSocketHandler(hub, messageH)

	router := gin.New()
	api := router.Group("/api", middleware.AuthMiddleware(jwtMgr, blacklist))
	{
		api.GET("/chat/messages", chatH.GetMessages)
		api.POST("/chat/messages", chatH.SendMessage)
		api.POST("/chat/messages/read", chatH.MarkRead)
	}
	router.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, blacklist), wsH.HandleWebSocket)

	return &chatTestEnv{router: router, db: d, hub: hub, jwt: jwtMgr, blacklist: blacklist}
}

func (env *chatTestEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	token, err := env.jwt.Generate(userID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (env *chatTestEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestGetMessagesRequiresAuth(t *testing.T) {
	d, _ := openTestDB(t)
	env := newChatTestEnv(t, d)

	w := env.request(t, http.MethodGet, "/api/chat/messages?courseId=course-42", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGetMessagesAccessRules(t *testing.T) {
	d, db := openTestDB(t)
	env := newChatTestEnv(t, d)

	teacher := seedUser(t, db, "Ann", "ann@example.com", "TEACHER")
	outsider := seedUser(t, db, "Eve", "eve@example.com", "STUDENT")
	seedCourse(t, db, "course-42", teacher.ID)

	w := env.request(t, http.MethodGet, "/api/chat/messages?courseId=course-42", env.token(t, outsider.ID), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("outsider status = %d, want 403", w.Code)
	}

	w = env.request(t, http.MethodGet, "/api/chat/messages?courseId=no-such", env.token(t, teacher.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown course status = %d, want 404", w.Code)
	}

	w = env.request(t, http.MethodGet, "/api/chat/messages", env.token(t, teacher.ID), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing courseId status = %d, want 400", w.Code)
	}
}

func TestGetMessagesAscending(t *testing.T) {
	d, db := openTestDB(t)
	env := newChatTestEnv(t, d)

	teacher := seedUser(t, db, "Ann", "ann@example.com", "TEACHER")
	seedCourse(t, db, "course-42", teacher.ID)

	for i := 0; i < 3; i++ {
		if _, err := d.AppendMessage("course-42", teacher.ID, fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	w := env.request(t, http.MethodGet, "/api/chat/messages?courseId=course-42", env.token(t, teacher.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var body struct {
		Messages []dto.MessageResponse `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(body.Messages))
	}
	for i := 1; i < len(body.Messages); i++ {
		if body.Messages[i].ID < body.Messages[i-1].ID {
			t.Fatal("messages not ascending")
		}
	}
	if last := body.Messages[len(body.Messages)-1]; last.Message != "msg-2" {
		t.Fatalf("last message = %q, want msg-2", last.Message)
	}
}

func TestSendMessageHTTPTwoPhase(t *testing.T) {
	d, db := openTestDB(t)
	env := newChatTestEnv(t, d)

	teacher := seedUser(t, db, "Ann", "ann@example.com", "TEACHER")
	student := seedUser(t, db, "Bob", "bob@example.com", "STUDENT")
	seedCourse(t, db, "course-42", teacher.ID)
	enroll(t, db, "course-42", student.ID)

	// A live member must see the HTTP-posted message too
	member := websocket.NewClient(env.hub, nil, teacher.ID)
	env.hub.JoinCourse(member, "course-42")
	drainClient(member)

	w := env.request(t, http.MethodPost, "/api/chat/messages", env.token(t, student.ID),
		map[string]string{"courseId": "course-42", "message": "hello"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var created dto.MessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == 0 || created.Message != "hello" || created.SenderID != student.ID {
		t.Fatalf("created = %+v", created)
	}

	events := drainClient(member)
	if len(events) != 1 || events[0].Type != websocket.TypeNewMessage {
		t.Fatalf("member events = %+v", events)
	}
	var relayed dto.MessageResponse
	json.Unmarshal(events[0].Data, &relayed)
	if relayed.ID != created.ID {
		t.Fatalf("relayed id %d != created id %d", relayed.ID, created.ID)
	}
}

func TestSendMessageHTTPValidation(t *testing.T) {
	d, db := openTestDB(t)
	env := newChatTestEnv(t, d)

	teacher := seedUser(t, db, "Ann", "ann@example.com", "TEACHER")
	seedCourse(t, db, "course-42", teacher.ID)
	token := env.token(t, teacher.ID)

	w := env.request(t, http.MethodPost, "/api/chat/messages", token,
		map[string]string{"courseId": "course-42"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing message status = %d, want 400", w.Code)
	}

	w = env.request(t, http.MethodPost, "/api/chat/messages", token,
		map[string]string{"courseId": "course-42", "message": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank message status = %d, want 400", w.Code)
	}

	if stored, _ := d.RecentMessages("course-42", 100); len(stored) != 0 {
		t.Fatalf("rejected messages were persisted: %v", stored)
	}
}

func TestMarkReadEndpoint(t *testing.T) {
	d, db := openTestDB(t)
	env := newChatTestEnv(t, d)

	teacher := seedUser(t, db, "Ann", "ann@example.com", "TEACHER")
	student := seedUser(t, db, "Bob", "bob@example.com", "STUDENT")
	seedCourse(t, db, "course-42", teacher.ID)
	enroll(t, db, "course-42", student.ID)

	d.AppendMessage("course-42", teacher.ID, "unread one")

	w := env.request(t, http.MethodPost, "/api/chat/messages/read", env.token(t, student.ID),
		map[string]string{"courseId": "course-42"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	messages, _ := d.RecentMessages("course-42", 100)
	if len(messages) != 1 || !messages[0].IsRead {
		t.Fatalf("message not marked read: %+v", messages)
	}
}

func TestRevokedTokenRejected(t *testing.T) {
	d, db := openTestDB(t)
	env := newChatTestEnv(t, d)

	teacher := seedUser(t, db, "Ann", "ann@example.com", "TEACHER")
	seedCourse(t, db, "course-42", teacher.ID)
	token := env.token(t, teacher.ID)

	// Usable before revocation
	if w := env.request(t, http.MethodGet, "/api/chat/messages?courseId=course-42", token, nil); w.Code != http.StatusOK {
		t.Fatalf("status before revoke = %d, want 200", w.Code)
	}

	env.blacklist.Revoke(context.Background(), token, time.Hour)

	w := env.request(t, http.MethodGet, "/api/chat/messages?courseId=course-42", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status after revoke = %d, want 401", w.Code)
	}
}
