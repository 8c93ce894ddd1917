package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/polyakovam/bookstore/api"
	"github.com/polyakovam/bookstore/config"
	"github.com/polyakovam/bookstore/core/claims"
	"github.com/polyakovam/bookstore/core/user"
	"github.com/polyakovam/bookstore/database"
	"github.com/polyakovam/bookstore/validate"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var dbHost string

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to docker: %v\n", err)
		return 1
	}

	resource, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=postgres",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "starting postgres container: %v\n", err)
		return 1
	}
	defer pool.Purge(resource)

	dbHost = resource.GetHostPort("5432/tcp")

	err = pool.Retry(func() error {
		db, err := database.Open(config.DB{
			User:       "postgres",
			Password:   "postgres",
			Host:       dbHost,
			Name:       "postgres",
			DisableTLS: true,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "waiting for postgres: %v\n", err)
		return 1
	}

	return m.Run()
}

type TestEnv struct {
	DB     *sqlx.DB
	Server *httptest.Server
	URL    string

	UserEmail  string
	UserPass   string
	AdminEmail string
	AdminPass  string

	client *http.Client
}

// NewTestEnv boots the full API over a fresh database named after the test.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	admin, err := database.Open(config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       dbHost,
		Name:       "postgres",
		DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening admin connection: %w", err)
	}
	defer admin.Close()

	if _, err := admin.Exec("CREATE DATABASE " + name); err != nil {
		return nil, fmt.Errorf("creating test database: %w", err)
	}

	db, err := database.Open(config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       dbHost,
		Name:       name,
		DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening test connection: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.ErrorLevel)

	sessionManager := scs.New()
	sessionManager.Lifetime = time.Hour

	mux := api.APIMux(api.APIConfig{
		Log:     logger,
		DB:      db,
		Session: sessionManager,
	})

	srv := httptest.NewServer(mux)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	te := &TestEnv{
		DB:         db,
		Server:     srv,
		URL:        srv.URL,
		UserEmail:  "user@example.com",
		UserPass:   "gophers12345",
		AdminEmail: "admin@example.com",
		AdminPass:  "gophers12345",
		client:     &http.Client{Jar: jar},
	}

	if err := te.seedUser(te.UserEmail, te.UserPass, claims.RoleUser); err != nil {
		return nil, err
	}
	if err := te.seedUser(te.AdminEmail, te.AdminPass, claims.RoleAdmin); err != nil {
		return nil, err
	}

	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})

	return te, nil
}

func (te *TestEnv) Client() *http.Client {
	return te.client
}

func (te *TestEnv) seedUser(email string, pass string, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:           validate.GenerateID(),
		Username:     email,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := user.Create(context.Background(), te.DB, usr); err != nil {
		return fmt.Errorf("seeding user[%s]: %w", email, err)
	}

	return nil
}

func (te *TestEnv) Login(email string, pass string) error {
	body := map[string]string{"email": email, "password": pass}
	status := 0

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	w, err := te.client.Post(te.URL+"/auth/login", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer w.Body.Close()

	status = w.StatusCode
	if status != http.StatusOK {
		return fmt.Errorf("login as %s: status code %d", email, status)
	}

	return nil
}

func (te *TestEnv) Logout() error {
	w, err := te.client.Post(te.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: status code %d", w.StatusCode)
	}

	return nil
}

// Do sends a JSON request with the env's cookie-bearing client and decodes
// the response into out when it is non-nil. It returns the status code.
func (te *TestEnv) Do(t *testing.T, method string, path string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling %s %s body: %v", method, path, err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	r, err := http.NewRequest(method, te.URL+path, reader)
	if err != nil {
		t.Fatalf("building %s %s request: %v", method, path, err)
	}
	r.Header.Set("Content-Type", "application/json")

	w, err := te.client.Do(r)
	if err != nil {
		t.Fatalf("sending %s %s request: %v", method, path, err)
	}
	defer w.Body.Close()

	if out != nil && w.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}

	return w.StatusCode
}
