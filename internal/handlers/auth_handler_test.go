package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"golang.org/x/crypto/bcrypt"

	"github.com/gitKheang/library-management-system/internal/handlers"
	"github.com/gitKheang/library-management-system/internal/models"
	"github.com/gitKheang/library-management-system/internal/utils"
)

func TestAuthHandler_Login(t *testing.T) {
	utils.InitJwtSecret("test-secret", 1)

	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)

	newRouter := func(mt *mtest.T) *mux.Router {
		handler := handlers.AuthHandler{UserCol: mt.Coll}
		router := mux.NewRouter()
		router.HandleFunc("/auth/login", handler.Login).Methods("POST")
		return router
	}

	login := func(router *mux.Router, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Result()
	}

	mt.Run("invalid body", func(mt *mtest.T) {
		res := login(newRouter(mt), "not json")
		defer res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", res.Status)
		}
	})

	mt.Run("unknown email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch))

		res := login(newRouter(mt), `{"email":"nobody@example.com","password":"whatever"}`)
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status Unauthorized, got %v", res.Status)
		}
	})

	mt.Run("wrong password", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "email", Value: "vathana@example.com"},
			{Key: "passwordHash", Value: string(hash)},
			{Key: "role", Value: string(models.RoleUser)},
			{Key: "status", Value: string(models.StatusActive)},
		}))

		res := login(newRouter(mt), `{"email":"vathana@example.com","password":"wrong horse"}`)
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status Unauthorized, got %v", res.Status)
		}
	})

	mt.Run("blocked account", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "email", Value: "vathana@example.com"},
			{Key: "passwordHash", Value: string(hash)},
			{Key: "role", Value: string(models.RoleUser)},
			{Key: "status", Value: string(models.StatusBlocked)},
		}))

		res := login(newRouter(mt), `{"email":"vathana@example.com","password":"correct horse"}`)
		defer res.Body.Close()

		if res.StatusCode != http.StatusForbidden {
			t.Errorf("expected status Forbidden, got %v", res.Status)
		}
	})

	mt.Run("successful login", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "name", Value: "Vathana"},
			{Key: "email", Value: "vathana@example.com"},
			{Key: "passwordHash", Value: string(hash)},
			{Key: "role", Value: string(models.RoleUser)},
			{Key: "status", Value: string(models.StatusActive)},
		}))

		// Mixed-case email must still match the lowercased record.
		res := login(newRouter(mt), `{"email":"Vathana@Example.com","password":"correct horse"}`)
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected status OK, got %v", res.Status)
		}

		var resp handlers.AuthResponse
		if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Token == "" {
			t.Error("expected a signed token in the response")
		}
		if resp.User.ID != "u1" {
			t.Errorf("expected user u1, got %q", resp.User.ID)
		}

		claims, err := utils.ParseJWT(resp.Token)
		if err != nil {
			t.Fatalf("parse token: %v", err)
		}
		if claims.UserID != "u1" || claims.Role != models.RoleUser {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})
}

func TestAuthHandler_Register(t *testing.T) {
	utils.InitJwtSecret("test-secret", 1)

	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	newRouter := func(mt *mtest.T) *mux.Router {
		handler := handlers.AuthHandler{UserCol: mt.Coll}
		router := mux.NewRouter()
		router.HandleFunc("/auth/register", handler.Register).Methods("POST")
		return router
	}

	mt.Run("missing required fields", func(mt *mtest.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/register",
			bytes.NewReader([]byte(`{"email":"vathana@example.com"}`)))
		w := httptest.NewRecorder()
		newRouter(mt).ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", res.Status)
		}
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch,
			bson.D{{Key: "n", Value: 1}}))

		body, _ := json.Marshal(handlers.RegisterRequest{
			Name:     "Vathana",
			Email:    "vathana@example.com",
			Password: "secret",
		})
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
		w := httptest.NewRecorder()
		newRouter(mt).ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", res.Status)
		}
	})

	mt.Run("successful registration", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		body, _ := json.Marshal(handlers.RegisterRequest{
			Name:      "Vathana",
			Email:     "Vathana@Example.com",
			Password:  "secret",
			StudentID: "S-2024-001",
		})
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
		w := httptest.NewRecorder()
		newRouter(mt).ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusCreated {
			t.Fatalf("expected status Created, got %v", res.Status)
		}

		var resp handlers.AuthResponse
		if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.User.Email != "vathana@example.com" {
			t.Errorf("expected lowercased email, got %q", resp.User.Email)
		}
		if resp.User.Role != models.RoleUser {
			t.Errorf("expected USER role, got %q", resp.User.Role)
		}
		if resp.Token == "" {
			t.Error("expected a signed token in the response")
		}
	})
}
