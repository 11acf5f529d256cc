package annotations

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<xfdf><annots><square page="0"/></annots></xfdf>`

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "doc-7", r.URL.Query().Get("did"))
		w.Write([]byte(sample))
	}))
	defer srv.Close()

	c := &Client{ServerURL: srv.URL, DocID: "doc-7"}
	assert.Equal(t, sample, c.Load(context.Background(), EmptyXFDF))
}

func TestLoadFallback(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer empty.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer failing.Close()

	for _, c := range []*Client{
		{ServerURL: empty.URL},
		{ServerURL: failing.URL},
		{},
	} {
		assert.Equal(t, EmptyXFDF, c.Load(context.Background(), EmptyXFDF))
	}
}

func TestSave(t *testing.T) {
	var got string
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		got = r.PostForm.Get("data")
		query = r.URL.RawQuery
	}))
	defer srv.Close()

	c := &Client{ServerURL: srv.URL}
	require.NoError(t, c.Save(context.Background(), sample))
	assert.Equal(t, sample, got)
	assert.Equal(t, "", query)
}

func TestSaveErrors(t *testing.T) {
	assert.Equal(t, ErrNoServer, (&Client{}).Save(context.Background(), sample))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := (&Client{ServerURL: srv.URL}).Save(context.Background(), sample)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := &Client{ServerURL: srv.URL, User: "alice", Admin: true, Secret: "s3cret"}
	require.NoError(t, c.Save(context.Background(), sample))
	require.True(t, strings.HasPrefix(auth, "Bearer "))

	claims := &userClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(*jwt.Token) (interface{}, error) {
		return []byte("s3cret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.True(t, claims.Admin)
}

func TestNoTokenWithoutSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		body, _ := ioutil.ReadAll(r.Body)
		assert.NotEmpty(t, body)
	}))
	defer srv.Close()

	require.NoError(t, (&Client{ServerURL: srv.URL}).Save(context.Background(), sample))
}

func TestTokenExpiry(t *testing.T) {
	c := &Client{User: "bob", Secret: "k"}
	issued := time.Unix(1000, 0)
	signed, err := c.Token(issued)
	require.NoError(t, err)

	claims := &userClaims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	_, err = parser.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("k"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, issued.Add(tokenLifetime).Unix(), claims.ExpiresAt)
}
