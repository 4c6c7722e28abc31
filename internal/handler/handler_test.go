package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pollbox/config"
	"pollbox/internal/domain/poll"
	"pollbox/internal/middleware"
	"pollbox/internal/repository/memory"
	"pollbox/internal/services"
)

type testEnv struct {
	store  *memory.Store
	engine *gin.Engine

	auth       *services.AuthService
	status     *services.PollStatusService
	mainToken  string
	voterToken string
	voterID    uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		JWTExpiryMin:   60,
		SessionDays:    14,
		MainAdminEmail: "admin@pollbox.local",
		ClientPageSize: 5,
		AdminPageSize:  10,
	}

	store := memory.NewStore()
	statusService := services.NewPollStatusService(store.PollStatus())
	voteService := services.NewVoteService(store.Votes(), statusService, nil, nil)
	questionService := services.NewQuestionService(store.Questions(), nil)
	resultsService := services.NewResultsService(store.Questions())
	authService := services.NewAuthService(store.Users(), cfg)
	adminService := services.NewAdminService(store.Users(), store.Questions(), store.Votes(), cfg.MainAdminEmail)

	authHandler := NewAuthHandler(authService, adminService, voteService)
	questionHandler := NewQuestionHandler(questionService, cfg)
	voteHandler := NewVoteHandler(voteService)
	resultsHandler := NewResultsHandler(resultsService, adminService)
	pollStatusHandler := NewPollStatusHandler(statusService)
	adminQuestionHandler := NewAdminQuestionHandler(questionService, cfg)
	adminHandler := NewAdminHandler(adminService)

	engine := gin.New()
	v1 := engine.Group("/v1")

	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/logout", middleware.AuthMiddleware(authService), authHandler.Logout)
	v1.GET("/auth/me", middleware.AuthMiddleware(authService), authHandler.Me)

	v1.GET("/questions", questionHandler.List)
	v1.GET("/questions/:id", questionHandler.Detail)
	v1.GET("/results", middleware.OptionalAuthMiddleware(authService), resultsHandler.Summary)
	v1.GET("/poll-status", pollStatusHandler.Get)

	votes := v1.Group("/votes")
	votes.Use(middleware.AuthMiddleware(authService))
	votes.POST("", voteHandler.Submit)
	votes.GET("/mine", voteHandler.Mine)

	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(authService), middleware.AdminMiddleware(adminService))
	admin.GET("/questions", adminQuestionHandler.List)
	admin.POST("/questions", adminQuestionHandler.Create)
	admin.GET("/questions/:id", adminQuestionHandler.Detail)
	admin.PUT("/questions/:id", adminQuestionHandler.Update)
	admin.DELETE("/questions/:id", adminQuestionHandler.Delete)
	admin.GET("/stats", adminHandler.Stats)
	admin.POST("/poll/close", pollStatusHandler.Close)
	admin.POST("/poll/reopen", pollStatusHandler.Reopen)

	roster := admin.Group("/admins")
	roster.Use(middleware.MainAdminMiddleware(adminService))
	roster.GET("", adminHandler.ListAdmins)
	roster.POST("/grant", adminHandler.GrantAdmin)
	roster.POST("/revoke", adminHandler.RevokeAdmin)

	env := &testEnv{
		store:  store,
		engine: engine,
		auth:   authService,
		status: statusService,
	}

	mainRes, err := authService.Register(context.Background(), services.RegisterInput{
		Email:    "admin@pollbox.local",
		Name:     "Main Admin",
		Password: "password123",
	})
	if err != nil {
		t.Fatal(err)
	}
	env.mainToken = mainRes.AccessToken

	voterRes, err := authService.Register(context.Background(), services.RegisterInput{
		Email:    "voter@example.com",
		Name:     "Voter",
		Password: "password123",
	})
	if err != nil {
		t.Fatal(err)
	}
	env.voterToken = voterRes.AccessToken
	env.voterID = uuid.MustParse(voterRes.User.ID)

	return env
}

func (e *testEnv) seedQuestion(t *testing.T, pubOffset time.Duration, choices ...string) poll.Question {
	t.Helper()
	q := &poll.Question{
		QuestionText: "seeded",
		PubDate:      time.Now().Add(pubOffset),
	}
	for _, text := range choices {
		q.Choices = append(q.Choices, poll.Choice{ChoiceText: text})
	}
	if err := e.store.Questions().Create(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	return *q
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return envelope
}

func TestVoteRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t, -time.Hour, "a", "b")

	rec := env.do(t, http.MethodPost, "/v1/votes", "", map[string]interface{}{
		"votes": map[string]uint{fmt.Sprint(q.ID): q.Choices[0].ID},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for anonymous vote, got %d", rec.Code)
	}
}

func TestVoteSubmitAndRetrieve(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t, -time.Hour, "a", "b")

	rec := env.do(t, http.MethodPost, "/v1/votes", env.voterToken, map[string]interface{}{
		"votes": map[string]uint{fmt.Sprint(q.ID): q.Choices[0].ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/votes/mine", env.voterToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mine: expected 200, got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	votes := data["votes"].(map[string]interface{})
	if len(votes) != 1 {
		t.Errorf("expected 1 recorded vote, got %v", votes)
	}
}

func TestVoteUnknownChoiceIs404(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t, -time.Hour, "a")

	rec := env.do(t, http.MethodPost, "/v1/votes", env.voterToken, map[string]interface{}{
		"votes": map[string]uint{fmt.Sprint(q.ID): 9999},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if code := decodeEnvelope(t, rec)["code"]; code != "CHOICE_NOT_FOUND" {
		t.Errorf("expected CHOICE_NOT_FOUND, got %v", code)
	}
}

func TestVoteMismatchedChoiceIs400(t *testing.T) {
	env := newTestEnv(t)
	q1 := env.seedQuestion(t, -time.Hour, "a")
	q2 := env.seedQuestion(t, -time.Hour, "x")

	rec := env.do(t, http.MethodPost, "/v1/votes", env.voterToken, map[string]interface{}{
		"votes": map[string]uint{fmt.Sprint(q2.ID): q1.Choices[0].ID},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if code := decodeEnvelope(t, rec)["code"]; code != "CHOICE_QUESTION_MISMATCH" {
		t.Errorf("expected CHOICE_QUESTION_MISMATCH, got %v", code)
	}
}

func TestVoteOnClosedPollIs403(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t, -time.Hour, "a")

	rec := env.do(t, http.MethodPost, "/v1/admin/poll/close", env.mainToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/votes", env.voterToken, map[string]interface{}{
		"votes": map[string]uint{fmt.Sprint(q.ID): q.Choices[0].ID},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 on closed poll, got %d", rec.Code)
	}
	if code := decodeEnvelope(t, rec)["code"]; code != "POLL_CLOSED" {
		t.Errorf("expected POLL_CLOSED, got %v", code)
	}

	// Reopen and the same submission goes through.
	rec = env.do(t, http.MethodPost, "/v1/admin/poll/reopen", env.mainToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reopen: expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/v1/votes", env.voterToken, map[string]interface{}{
		"votes": map[string]uint{fmt.Sprint(q.ID): q.Choices[0].ID},
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 after reopen, got %d", rec.Code)
	}
}

func TestPublicQuestionVisibility(t *testing.T) {
	env := newTestEnv(t)
	visible := env.seedQuestion(t, -time.Hour, "a")
	future := env.seedQuestion(t, time.Hour, "b")
	choiceless := env.seedQuestion(t, -time.Hour)

	rec := env.do(t, http.MethodGet, "/v1/questions", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	results := data["results"].([]interface{})
	if len(results) != 1 {
		t.Errorf("expected 1 visible question, got %d", len(results))
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/v1/questions/%d", visible.ID), "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("visible detail: expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/v1/questions/%d", future.ID), "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("future detail: expected 404, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/v1/questions/%d", choiceless.ID), "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("choiceless detail: expected 404, got %d", rec.Code)
	}
}

func TestAdminSurfaceForbiddenForRegularUsers(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/admin/questions"},
		{http.MethodGet, "/v1/admin/stats"},
		{http.MethodPost, "/v1/admin/poll/close"},
	}
	for _, p := range paths {
		rec := env.do(t, p.method, p.path, env.voterToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s: expected 403, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestAdminQuestionCRUD(t *testing.T) {
	env := newTestEnv(t)

	create := map[string]interface{}{
		"question_text": "new question",
		"pub_date":      time.Now().Add(-time.Hour).Format(time.RFC3339),
		"choices": []map[string]interface{}{
			{"choice_text": "one"},
			{"choice_text": "two"},
		},
	}
	rec := env.do(t, http.MethodPost, "/v1/admin/questions", env.mainToken, create)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	id := uint(data["id"].(float64))

	update := map[string]interface{}{
		"question_text": "renamed",
		"pub_date":      time.Now().Add(-time.Hour).Format(time.RFC3339),
		"choices": []map[string]interface{}{
			{"choice_text": "only"},
		},
	}
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/v1/admin/questions/%d", id), env.mainToken, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data = decodeEnvelope(t, rec)["data"].(map[string]interface{})
	if data["question_text"] != "renamed" {
		t.Errorf("update did not rename: %v", data["question_text"])
	}
	if choices := data["choices"].([]interface{}); len(choices) != 1 {
		t.Errorf("expected 1 choice after update, got %d", len(choices))
	}

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/v1/admin/questions/%d", id), env.mainToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/v1/admin/questions/%d", id), env.mainToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted question should 404, got %d", rec.Code)
	}
}

func TestAdminCreateValidationIs400(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/admin/questions", env.mainToken, map[string]interface{}{
		"question_text": "x",
		"pub_date":      time.Now().Format(time.RFC3339),
		"choices": []map[string]interface{}{
			{"choice_text": "bad", "votes": -5},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative votes, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestResultsPercentages(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t, -time.Hour, "a", "b")

	rec := env.do(t, http.MethodPost, "/v1/votes", env.voterToken, map[string]interface{}{
		"votes": map[string]uint{fmt.Sprint(q.ID): q.Choices[0].ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatal("vote failed")
	}

	rec = env.do(t, http.MethodGet, "/v1/results", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("results: expected 200, got %d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	questions := data["questions_results"].([]interface{})
	if len(questions) != 1 {
		t.Fatalf("expected 1 question result, got %d", len(questions))
	}
	choices := questions[0].(map[string]interface{})["choices_results"].([]interface{})
	first := choices[0].(map[string]interface{})
	second := choices[1].(map[string]interface{})
	if first["percentage"].(float64) != 100.0 || second["percentage"].(float64) != 0.0 {
		t.Errorf("percentages wrong: %v / %v", first["percentage"], second["percentage"])
	}
}

func TestRosterManagementIsMainAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	// Promote the voter to a regular admin first.
	rec := env.do(t, http.MethodPost, "/v1/admin/admins/grant", env.mainToken, map[string]string{
		"email": "voter@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("grant: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// A regular admin can use the admin surface but not the roster.
	rec = env.do(t, http.MethodGet, "/v1/admin/stats", env.voterToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("regular admin should reach stats, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/v1/admin/admins/grant", env.voterToken, map[string]string{
		"email": "voter@example.com",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("regular admin must not manage the roster, got %d", rec.Code)
	}

	// The main admin cannot be demoted, even by themselves.
	rec = env.do(t, http.MethodPost, "/v1/admin/admins/revoke", env.mainToken, map[string]string{
		"email": "admin@pollbox.local",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("demoting the main admin must be forbidden, got %d", rec.Code)
	}
}

func TestMeReportsVoteState(t *testing.T) {
	env := newTestEnv(t)
	q := env.seedQuestion(t, -time.Hour, "a")

	rec := env.do(t, http.MethodGet, "/v1/auth/me", env.voterToken, nil)
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	if data["has_voted"].(bool) {
		t.Error("fresh account should not have voted")
	}
	if data["is_admin"].(bool) {
		t.Error("voter should not be admin")
	}

	env.do(t, http.MethodPost, "/v1/votes", env.voterToken, map[string]interface{}{
		"votes": map[string]uint{fmt.Sprint(q.ID): q.Choices[0].ID},
	})

	rec = env.do(t, http.MethodGet, "/v1/auth/me", env.voterToken, nil)
	data = decodeEnvelope(t, rec)["data"].(map[string]interface{})
	if !data["has_voted"].(bool) {
		t.Error("has_voted should flip after voting")
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/auth/logout", env.voterToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/v1/auth/me", env.voterToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("token should be dead after logout, got %d", rec.Code)
	}
}

func TestPollStatusIsPublic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/poll-status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	if data["is_closed"].(bool) {
		t.Error("poll should start open")
	}
}
