// Package testutil provides helpers for HTTP-level tests.
package testutil

import (
	"context"
	"log"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
	"github.com/mobilehub/mobile-content/pkg/mobilecontent/api"
	"github.com/mobilehub/mobile-content/pkg/mobilecontent/media"
	memoryrepo "github.com/mobilehub/mobile-content/pkg/mobilecontent/repo/memory"
	memorystorage "github.com/mobilehub/mobile-content/pkg/mobilecontent/storage/memory"
)

// Test credentials seeded into every test server.
const (
	TestLogin    = "apiuser"
	TestEmail    = "apiuser@example.com"
	TestPassword = "test-password"
)

// TestJWTSecret signs bearer tokens in tests.
const TestJWTSecret = "test-secret"

// SetupTestServer creates a test server with all routes configured and one
// seeded credential for authentication.
func SetupTestServer() *httptest.Server {
	repo := memoryrepo.New()
	users := memoryrepo.NewUserStore()
	blobs := memorystorage.New(memorystorage.WithURLPrefix("http://media.test"))

	hash, err := mobilecontent.HashPassword(TestPassword)
	if err != nil {
		log.Fatal(err)
	}
	err = users.CreateUser(context.Background(), &mobilecontent.User{
		ID:           uuid.New(),
		Login:        TestLogin,
		Email:        TestEmail,
		PasswordHash: hash,
	})
	if err != nil {
		log.Fatal(err)
	}

	svc, err := mobilecontent.New(
		mobilecontent.WithRepository(repo),
		mobilecontent.WithUserStore(users),
		mobilecontent.WithBlobStore("memory", blobs),
		mobilecontent.WithSideloader(media.NewSideloader(repo, blobs, "memory")),
	)
	if err != nil {
		log.Fatal(err)
	}

	tokenAuth := jwtauth.New("HS256", []byte(TestJWTSecret), nil)
	handler := api.NewHandler(svc, users, api.WithTokenAuth(tokenAuth, time.Hour))

	r := chi.NewRouter()
	r.Mount("/custom/v1", handler.Routes())

	return httptest.NewServer(r)
}
